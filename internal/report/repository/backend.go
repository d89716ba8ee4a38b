// Package repository persists the report watchlist. A Backend stores one
// named JSON record; ReportStore keeps the in-memory list and degrades to
// memory-only when the backend fails.
package repository

import (
	"context"
	"fmt"

	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/database"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// Backend reads and writes the serialized watchlist.
type Backend interface {
	// Load returns nil data and no error when nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Name() string
}

// NewBackend builds the backend selected by cfg.Store.Driver. The returned
// close function releases any connection the backend holds.
func NewBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		return NewFileBackend(cfg.Store.Path, cfg.Store.RecordKey), noop, nil

	case config.StoreDriverMemory:
		return NewMemoryBackend(), noop, nil

	case config.StoreDriverPostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewPostgresBackend(db, cfg.Store.RecordKey), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
