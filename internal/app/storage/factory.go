// Package storage opens the shared record store selected by the configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	"github.com/stacklok/toolhive-schema-sync/internal/store/memory"
	"github.com/stacklok/toolhive-schema-sync/internal/store/postgres"
	"github.com/stacklok/toolhive-schema-sync/internal/store/sqlite"
)

// NewStore opens the store of the configured type. Every chain opened on the
// returned store writes as the configured node.
//
// The PostgreSQL schema is not migrated here; run "migrate up" first.
// SQLite databases are migrated when opened.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []store.Option{
		store.WithNode(cfg.GetNodeName()),
		store.WithLogger(logger),
	}

	switch cfg.GetStoreType() {
	case config.StoreTypeMemory:
		logger.Warn("Using in-memory store, published records are not shared with other nodes")
		return memory.NewStore(opts...), nil

	case config.StoreTypeSQLite:
		backend, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("Using sqlite store", "path", cfg.Store.Path)
		return store.New(backend, opts...), nil

	case config.StoreTypePostgres:
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for the postgres store")
		}
		connString, err := cfg.Database.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to build connection string: %w", err)
		}
		backend, err := postgres.Open(ctx, connString, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("Using postgres store",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Database,
		)
		return store.New(backend, opts...), nil

	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.GetStoreType())
	}
}
