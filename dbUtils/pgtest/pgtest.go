// Package pgtest starts a disposable PostgreSQL for integration tests and benchmarks.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	dbutils "crmbench/dbUtils"
)

const image = "postgres:16-alpine"

// Start runs a container with the CRM schema applied and returns its connection string. The
// container is terminated when the test ends.
func Start(tb testing.TB) string {
	tb.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		image,
		tcpostgres.WithDatabase("crm"),
		tcpostgres.WithUsername("crm"),
		tcpostgres.WithPassword("crm"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(tb, err)

	db := Admin(tb, dsn)
	require.NoError(tb, dbutils.Migrate(db.DB))
	return dsn
}

// Admin opens an administrative connection closed at the end of the test.
func Admin(tb testing.TB, dsn string) *sqlx.DB {
	tb.Helper()
	db, err := dbutils.Open(context.Background(), dsn)
	require.NoError(tb, err)
	tb.Cleanup(func() { db.Close() })
	return db
}
