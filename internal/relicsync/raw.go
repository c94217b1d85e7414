package relicsync

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/model"
)

// syncRaw rebuilds the raw price collection when it is missing or corrupt and
// performs a full price update when prices are stale. A per-item fetch
// failure leaves that item's record untouched until the next run.
func (e *Engine) syncRaw(ctx context.Context, state SyncState) (SyncState, int64, error) {
	if state.RawIntact && state.PricesFresh {
		return state, 0, nil
	}

	entries := state.Catalog.Classified()
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.URLName
	}

	results := market.FetchAll(ctx, names, func(ctx context.Context, name string) (*market.Statistics, error) {
		return e.client.Statistics(ctx, name)
	}, e.batch)

	observed := e.now()
	candidates := make([]model.RawPrice, 0, len(entries))
	failed := 0
	for i, res := range results {
		if res.Failed() {
			failed++
			continue
		}
		p90, p48 := res.Value.Averages()
		candidates = append(candidates, model.RawPrice{
			ItemID:     entries[i].ID,
			URLName:    entries[i].URLName,
			Price90d:   p90,
			Price48h:   p48,
			ObservedAt: observed,
		})
	}

	var existing []model.RawPrice
	if state.RawPresent {
		var err error
		existing, err = e.store.RawPrices(ctx)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: read raw prices")
		}
	}

	ops := Plan(existing, candidates, !state.RawPresent,
		func(r model.RawPrice) string { return r.ItemID },
		model.RawPrice.Equal)

	var written int64
	if len(ops) > 0 {
		var err error
		written, err = e.store.UpsertRawPrices(ctx, ops)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: write raw prices")
		}
	}

	e.log.Info("raw prices synced",
		zap.Int("fetched", len(candidates)),
		zap.Int("failed", failed),
		zap.Int64("written", written))
	return state.WithRawClean(), written, nil
}
