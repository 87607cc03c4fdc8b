package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/checkclass/internal/config"
	"github.com/example/checkclass/internal/persistence"
	"github.com/example/checkclass/internal/persistence/memory"
	"github.com/example/checkclass/internal/persistence/postgres"
	"github.com/example/checkclass/internal/persistence/sqlite"
	"github.com/example/checkclass/internal/persistence/sqlite/migration"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// openStore connects the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		logger.WarnContext(ctx, "using in-memory store; data is lost on exit")
		return memory.New(), nil

	case config.DriverPostgres:
		store, err := postgres.Open(postgres.DefaultConfig(cfg.PostgresDSN), logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case config.DriverSQLite, "":
		store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
		if err != nil {
			return nil, err
		}
		applied, err := store.Migrate(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if applied > 0 {
			logger.InfoContext(ctx, "database migrations applied", "count", applied, "path", cfg.SQLitePath)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.DBDriver)
}

// healthCheck returns a readiness probe for store, or nil when the backend
// has nothing to ping.
func healthCheck(store persistence.Store) func(ctx context.Context) error {
	p, ok := store.(pinger)
	if !ok {
		return nil
	}
	return p.Ping
}
