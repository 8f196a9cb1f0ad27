package orm

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/model"
)

const Name = "orm"

// Orm persists the aggregate as mapped entities: one Create call saves the company and its
// contacts association.
type Orm struct {
	dsn string
}

func New(dsn string) *Orm {
	return &Orm{dsn: dsn}
}

func (o *Orm) Name() string {
	return Name
}

func (o *Orm) Open(ctx context.Context) (engine.Session, error) {
	db, err := gorm.Open(postgres.Open(o.dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// the session opens its own transaction per insert
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return NewSession(db), nil
}

type Session struct {
	db *gorm.DB
}

func NewSession(db *gorm.DB) *Session {
	return &Session{db: db}
}

func (s *Session) Insert(ctx context.Context, company model.Company) (model.Company, error) {
	out := company.Clone()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&out).Error
	})
	if err != nil {
		return model.Company{}, fmt.Errorf("create company: %w", err)
	}
	return out, nil
}

func (s *Session) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
