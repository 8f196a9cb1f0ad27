// Package crm benchmarks inserting one company with its contacts per iteration through one
// data-access strategy.
package crm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	zlog "github.com/rs/zerolog/log"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/benchmark/engines/microorm"
	"crmbench/benchmark/engines/native"
	"crmbench/benchmark/engines/orm"
	"crmbench/benchmark/engines/raw"
	"crmbench/config"
	dbutils "crmbench/dbUtils"
	"crmbench/model"
	"crmbench/worker"
)

type Crm struct {
	id       int
	runID    string
	cfg      *config.Config
	name     string
	dsn      string
	strategy engine.Strategy
	db       *sqlx.DB // administrative connection, never used inside the timed region
}

// NewStrategy maps a strategy name to its backend.
func NewStrategy(name string, dsn string) (engine.Strategy, error) {
	switch name {
	case config.Orm:
		return orm.New(dsn), nil
	case config.MicroOrm:
		return microorm.New(dsn), nil
	case config.Native:
		return native.New(dsn), nil
	case config.Raw:
		return raw.New(dsn), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStrategy, name)
}

func New(id int, runID string, name string, cfg *config.Config) (*Crm, error) {
	dsn, err := cfg.ConnectionString(name)
	if err != nil {
		return nil, err
	}
	strategy, err := NewStrategy(name, dsn)
	if err != nil {
		return nil, err
	}
	return &Crm{id: id, runID: runID, cfg: cfg, name: name, dsn: dsn, strategy: strategy}, nil
}

func (c *Crm) log(msg string) {
	zlog.Info().Str("benchmark", "crm").Str("strategy", c.name).Int("run", c.id).Str("run_id", c.runID).Msg(msg)
}

func (c *Crm) Setup(ctx context.Context) error {
	db, err := dbutils.Open(ctx, c.dsn)
	if err != nil {
		return err
	}
	c.db = db

	if c.cfg.Provision {
		c.log("Provisioning")
		if err := dbutils.Migrate(c.db.DB); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crm) Truncate(ctx context.Context) error {
	c.log("Truncating")
	if err := dbutils.Truncate(ctx, c.db); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func (c *Crm) Populate(ctx context.Context) error {
	if c.cfg.Truncate {
		if err := c.Truncate(ctx); err != nil {
			return err
		}
	}
	if err := dbutils.Vacuum(ctx, c.db, false); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if err := dbutils.Checkpoint(ctx, c.db); err != nil {
		zlog.Warn().Str("strategy", c.name).Err(err).Msg("checkpoint skipped")
	}
	c.log("Populate done")
	return nil
}

func (c *Crm) Prepare() engine.Strategy {
	return c.strategy
}

func (c *Crm) Verifier() worker.Verifier {
	if !c.cfg.Verify {
		return nil
	}
	return &verifier{db: c.db}
}

func (c *Crm) GetConfigs() map[string]string {
	return map[string]string{
		"strategy":           c.name,
		"contactsPerCompany": strconv.Itoa(c.cfg.ContactsPerCompany),
		"iterations":         strconv.Itoa(c.cfg.Iterations),
		"warmup":             strconv.Itoa(c.cfg.Warmup),
		"includeConnect":     strconv.FormatBool(c.cfg.IncludeConnect),
	}
}

func (c *Crm) GetMetrics(ctx context.Context) map[string]string {
	metrics := map[string]string{}

	size, err := dbutils.DbSize(ctx, c.db)
	if err != nil {
		zlog.Warn().Str("strategy", c.name).Err(err).Msg("db size")
		size = -1
	}
	metrics["dbSize"] = strconv.FormatInt(size, 10)

	companies, contacts, err := dbutils.CountRows(ctx, c.db)
	if err != nil {
		zlog.Warn().Str("strategy", c.name).Err(err).Msg("count rows")
		companies, contacts = -1, -1
	}
	metrics["companies"] = strconv.FormatInt(companies, 10)
	metrics["contacts"] = strconv.FormatInt(contacts, 10)

	return metrics
}

func (c *Crm) Finalize() {
	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		zlog.Warn().Str("strategy", c.name).Err(err).Msg("close admin connection")
	}
	c.db = nil
}

type verifier struct {
	db *sqlx.DB
}

func (v *verifier) Verify(ctx context.Context, company model.Company) error {
	return dbutils.Verify(ctx, v.db, company)
}
