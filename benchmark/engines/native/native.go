package native

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/model"
)

const Name = "native"

// Native inserts through database/sql with statements prepared once per session.
type Native struct {
	dsn string
}

func New(dsn string) *Native {
	return &Native{dsn: dsn}
}

func (n *Native) Name() string {
	return Name
}

func (n *Native) Open(ctx context.Context) (engine.Session, error) {
	db, err := sql.Open("postgres", n.dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	s, err := NewSession(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type Session struct {
	db          *sql.DB
	companyStmt *sql.Stmt
	contactStmt *sql.Stmt
}

// NewSession takes ownership of db and pins it to a single connection, so the prepared
// statements are reused by every transaction of the session.
func NewSession(ctx context.Context, db *sql.DB) (*Session, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Session{db: db}
	var err error
	if s.companyStmt, err = db.PrepareContext(ctx, engine.InsertCompanySQL); err != nil {
		return nil, fmt.Errorf("prepare company insert: %w", err)
	}
	if s.contactStmt, err = db.PrepareContext(ctx, engine.InsertContactSQL); err != nil {
		s.companyStmt.Close()
		return nil, fmt.Errorf("prepare contact insert: %w", err)
	}
	return s, nil
}

func (s *Session) Insert(ctx context.Context, company model.Company) (model.Company, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Company{}, err
	}
	// no-op once committed
	defer tx.Rollback()

	out := company.Clone()
	err = tx.StmtContext(ctx, s.companyStmt).
		QueryRowContext(ctx, out.TaxID, out.Name, out.City).
		Scan(&out.ID)
	if err != nil {
		return model.Company{}, fmt.Errorf("insert company: %w", err)
	}

	contactStmt := tx.StmtContext(ctx, s.contactStmt)
	for i := range out.Contacts {
		c := &out.Contacts[i]
		c.CompanyID = out.ID
		if err := contactStmt.QueryRowContext(ctx, c.Name, c.Phone, c.CompanyID).Scan(&c.ID); err != nil {
			return model.Company{}, fmt.Errorf("insert contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Company{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *Session) Close() error {
	s.companyStmt.Close()
	s.contactStmt.Close()
	return s.db.Close()
}
