package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taxiwatch/taxiwatch-backend/pkg/database"
)

// PostgresBackend stores the record as one row of app_state.
type PostgresBackend struct {
	db  *database.DB
	key string
}

// NewPostgresBackend creates a backend for the named record. The schema
// must already exist (see database.DB.Migrate).
func NewPostgresBackend(db *database.DB, key string) *PostgresBackend {
	return &PostgresBackend{db: db, key: key}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// Load implements Backend.
func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := b.db.GetContext(ctx, &value, `SELECT value FROM app_state WHERE key = $1`, b.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("load", err)
	}
	return value, nil
}

// Save implements Backend.
func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := b.db.ExecContext(ctx, query, b.key, string(data)); err != nil {
		return mapError("save", err)
	}
	return nil
}

func mapError(op string, err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return fmt.Errorf("%s app_state: %w", op, appErr)
	}
	return fmt.Errorf("%s app_state: %w", op, err)
}
