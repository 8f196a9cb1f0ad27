package microorm

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/model"
)

const Name = "microorm"

// Parameters are bound by name from the model's db tags.
const (
	insertCompany = `INSERT INTO "Empresas" ("CNPJ", "Nome", "Cidade") VALUES (:CNPJ, :Nome, :Cidade) RETURNING "IdEmpresa"`
	insertContact = `INSERT INTO "Contatos" ("Nome", "Telefone", "IdEmpresa") VALUES (:Nome, :Telefone, :IdEmpresa) RETURNING "IdContato"`
)

// MicroOrm issues one parameterized statement per row through sqlx.
type MicroOrm struct {
	dsn string
}

func New(dsn string) *MicroOrm {
	return &MicroOrm{dsn: dsn}
}

func (m *MicroOrm) Name() string {
	return Name
}

func (m *MicroOrm) Open(ctx context.Context) (engine.Session, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", m.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return NewSession(db), nil
}

type Session struct {
	db *sqlx.DB
}

func NewSession(db *sqlx.DB) *Session {
	db.SetMaxOpenConns(1)
	return &Session{db: db}
}

func (s *Session) Insert(ctx context.Context, company model.Company) (model.Company, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Company{}, err
	}
	defer tx.Rollback()

	out := company.Clone()
	if err := namedGet(ctx, tx, &out.ID, insertCompany, out); err != nil {
		return model.Company{}, fmt.Errorf("insert company: %w", err)
	}

	for i := range out.Contacts {
		c := &out.Contacts[i]
		c.CompanyID = out.ID
		if err := namedGet(ctx, tx, &c.ID, insertContact, c); err != nil {
			return model.Company{}, fmt.Errorf("insert contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Company{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *Session) Close() error {
	return s.db.Close()
}

func namedGet(ctx context.Context, tx *sqlx.Tx, dest any, query string, arg any) error {
	q, args, err := tx.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return tx.GetContext(ctx, dest, q, args...)
}
