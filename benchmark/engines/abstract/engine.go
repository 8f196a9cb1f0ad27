package engine

import (
	"context"

	"crmbench/model"
)

// Strategy is one way of persisting a Company with its Contacts.
type Strategy interface {
	// Name used in configuration and reports
	Name() string
	// Acquires a connection owned by a single iteration
	Open(ctx context.Context) (Session, error)
}

// Session is a connection (or ORM session) used by exactly one iteration.
type Session interface {
	// Inserts the company and then each contact in one transaction, returning a copy with the
	// database assigned identifiers. On error nothing is committed and the zero Company is
	// returned.
	Insert(ctx context.Context, company model.Company) (model.Company, error)
	// Releases the connection
	Close() error
}

// Column lists shared by the SQL based strategies.
const (
	InsertCompanySQL = `INSERT INTO "Empresas" ("CNPJ", "Nome", "Cidade") VALUES ($1, $2, $3) RETURNING "IdEmpresa"`
	InsertContactSQL = `INSERT INTO "Contatos" ("Nome", "Telefone", "IdEmpresa") VALUES ($1, $2, $3) RETURNING "IdContato"`
)
