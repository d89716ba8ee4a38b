// Package testutil provides testing utilities for the taxiwatch packages:
// a PostgreSQL testcontainer, sqlmock wrappers, a recording event publisher
// and HTTP helpers.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/pkg/database"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage   = "postgres:15-alpine"
	postgresStartup = 60 * time.Second
)

// PostgresOption adjusts the test container.
type PostgresOption func(*postgresSettings)

type postgresSettings struct {
	image    string
	database string
}

// WithPostgresImage overrides the postgres image.
func WithPostgresImage(image string) PostgresOption {
	return func(s *postgresSettings) { s.image = image }
}

// StartPostgres runs a throwaway PostgreSQL container for the test and
// returns a migrated handle on it. The container and handle are released by
// t.Cleanup. Skipped under -short.
func StartPostgres(t *testing.T, opts ...PostgresOption) *database.DB {
	t.Helper()
	SkipIfShort(t)

	s := postgresSettings{image: postgresImage, database: "taxiwatch_test"}
	for _, opt := range opts {
		opt(&s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*postgresStartup)
	t.Cleanup(cancel)
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(s.image),
		postgres.WithDatabase(s.database),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(postgresStartup),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	db, err := database.Open(dsn, logger.Nop())
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "migrate test database")
	return db
}
