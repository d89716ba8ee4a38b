package database

import (
	"context"
	"fmt"
)

// appStateSchema holds one JSON document per record key.
const appStateSchema = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the tables the report store needs. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, appStateSchema); err != nil {
		return fmt.Errorf("failed to create app_state table: %w", err)
	}
	db.logger.Debug().Msg("database schema ready")
	return nil
}
