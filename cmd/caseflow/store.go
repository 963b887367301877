package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/rom8726/caseflow"
)

// openStore builds the configured backend behind a read cache. The returned
// closer releases the cache and the backend.
func openStore(ctx context.Context, cfg StoreConfig, logger zerolog.Logger) (caseflow.Store, func(), error) {
	var (
		backing caseflow.Store
		closers []func()
	)

	switch cfg.Driver {
	case "memory":
		backing = caseflow.NewMemoryStore()
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		store, err := caseflow.NewSQLiteStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		backing = store
		closers = append(closers, func() { _ = store.Close() })
	case "badger":
		store, err := caseflow.NewBadgerStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		backing = store
		closers = append(closers, func() { _ = store.Close() })
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := caseflow.RunMigrations(ctx, pool, cfg.Schema); err != nil {
			pool.Close()

			return nil, nil, err
		}
		backing = caseflow.NewPostgresStore(pool, cfg.Schema)
		closers = append(closers, pool.Close)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.CacheSize <= 0 {
		logger.Info().Str("driver", cfg.Driver).Msg("store opened")

		return backing, closeAll, nil
	}

	cached, err := caseflow.NewCachedStore(backing, cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		closeAll()

		return nil, nil, err
	}
	closers = append(closers, cached.Close)

	logger.Info().Str("driver", cfg.Driver).Int64("cache_size", cfg.CacheSize).Msg("store opened")

	return cached, closeAll, nil
}
