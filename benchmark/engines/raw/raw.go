package raw

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/model"
)

const Name = "raw"

// Raw talks to the server through a bare pgx connection with positional parameters.
type Raw struct {
	dsn string
}

func New(dsn string) *Raw {
	return &Raw{dsn: dsn}
}

func (r *Raw) Name() string {
	return Name
}

func (r *Raw) Open(ctx context.Context) (engine.Session, error) {
	conn, err := pgx.Connect(ctx, r.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Session{conn: conn}, nil
}

type Session struct {
	conn *pgx.Conn
}

func (s *Session) Insert(ctx context.Context, company model.Company) (model.Company, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return model.Company{}, err
	}
	// returns pgx.ErrTxClosed once committed
	defer tx.Rollback(ctx)

	out := company.Clone()
	err = tx.QueryRow(ctx, engine.InsertCompanySQL, out.TaxID, out.Name, out.City).Scan(&out.ID)
	if err != nil {
		return model.Company{}, fmt.Errorf("insert company: %w", err)
	}

	for i := range out.Contacts {
		c := &out.Contacts[i]
		c.CompanyID = out.ID
		err := tx.QueryRow(ctx, engine.InsertContactSQL, c.Name, c.Phone, c.CompanyID).Scan(&c.ID)
		if err != nil {
			return model.Company{}, fmt.Errorf("insert contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Company{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *Session) Close() error {
	return s.conn.Close(context.Background())
}
