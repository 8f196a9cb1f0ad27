package dbutils

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"crmbench/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrVerification = errors.New("read back differs from insert")

// Opens an administrative connection (lib/pq) used outside the timed region
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("admin connection: %w", err)
	}
	return db, nil
}

// Creates the "Empresas" and "Contatos" tables if they are missing
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Removes every company and contact and restarts the identity sequences
func Truncate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE "Contatos", "Empresas" RESTART IDENTITY`)
	return err
}

func Vacuum(ctx context.Context, db *sqlx.DB, full bool) error {
	stmt := "vacuum analyze"
	if full {
		stmt = "vacuum full analyze"
	}
	_, err := db.ExecContext(ctx, stmt)
	return err
}

// Requires superuser or pg_checkpoint
func Checkpoint(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, "checkpoint")
	return err
}

// Returns the size of both tables, including indexes, in bytes
func DbSize(ctx context.Context, db *sqlx.DB) (int64, error) {
	var s int64
	err := db.GetContext(ctx, &s, `
		select pg_total_relation_size('"Empresas"') +
			pg_total_relation_size('"Contatos"')
	`)
	return s, err
}

func CountRows(ctx context.Context, db *sqlx.DB) (companies int64, contacts int64, err error) {
	row := db.QueryRowxContext(ctx, `select (select count(*) from "Empresas"), (select count(*) from "Contatos")`)
	err = row.Scan(&companies, &contacts)
	return companies, contacts, err
}

// Reads a company and its contacts (ordered by id) back from the database
func LoadCompany(ctx context.Context, db *sqlx.DB, id int) (model.Company, error) {
	var c model.Company
	err := db.GetContext(ctx, &c, `select "IdEmpresa", "CNPJ", "Nome", "Cidade" from "Empresas" where "IdEmpresa" = $1`, id)
	if err != nil {
		return model.Company{}, fmt.Errorf("load company %d: %w", id, err)
	}
	err = db.SelectContext(ctx, &c.Contacts,
		`select "IdContato", "IdEmpresa", "Nome", "Telefone" from "Contatos" where "IdEmpresa" = $1 order by "IdContato"`, id)
	if err != nil {
		return model.Company{}, fmt.Errorf("load contacts of %d: %w", id, err)
	}
	return c, nil
}

// Checks that the stored rows match what was inserted, field by field
func Verify(ctx context.Context, db *sqlx.DB, want model.Company) error {
	got, err := LoadCompany(ctx, db, want.ID)
	if err != nil {
		return err
	}
	return Compare(want, got)
}

func Compare(want, got model.Company) error {
	if want.ID != got.ID || want.TaxID != got.TaxID || want.Name != got.Name || want.City != got.City {
		return fmt.Errorf("%w: company %+v, stored %+v", ErrVerification,
			model.Company{ID: want.ID, TaxID: want.TaxID, Name: want.Name, City: want.City},
			model.Company{ID: got.ID, TaxID: got.TaxID, Name: got.Name, City: got.City})
	}
	if len(want.Contacts) != len(got.Contacts) {
		return fmt.Errorf("%w: company %d has %d contacts, stored %d", ErrVerification,
			want.ID, len(want.Contacts), len(got.Contacts))
	}
	for i := range want.Contacts {
		if want.Contacts[i] != got.Contacts[i] {
			return fmt.Errorf("%w: contact %d %+v, stored %+v", ErrVerification, i, want.Contacts[i], got.Contacts[i])
		}
	}
	return nil
}
