package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/squad-relic/relic-sync/internal/config"
	"github.com/squad-relic/relic-sync/internal/db"
	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/relicsync"
	"github.com/squad-relic/relic-sync/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newClient(api config.APIConfig) *market.HTTPClient {
	return market.NewHTTPClient(market.HTTPOptions{
		BaseURL:   api.BaseURL,
		UserAgent: api.UserAgent,
		Timeout:   api.Timeout(),
		RateLimit: rate.Limit(api.RatePerSec),
		Burst:     api.Burst,
	})
}

// initEngine opens the configured store, migrates it, and wires the engine.
// The caller owns the returned store.
func initEngine(ctx context.Context) (*relicsync.Engine, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}

	engine := relicsync.New(st, newClient(cfg.API), relicsync.EngineConfig{
		Batch: market.BatchOptions{
			Concurrency: cfg.API.Concurrency,
			Delay:       cfg.API.Delay(),
		},
		StaleAfter: cfg.Sync.StaleAfter(),
	})
	return engine, st, nil
}
