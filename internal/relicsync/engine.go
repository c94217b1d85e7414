package relicsync

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/store"
)

// Engine runs the audit, fetch, derive, write cycle. One run is assumed
// active at a time; interrupted runs are recovered by re-running the whole
// cycle, which is idempotent.
type Engine struct {
	store      store.Store
	client     market.Client
	batch      market.BatchOptions
	staleAfter time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// EngineConfig tunes an Engine. Zero values fall back to defaults.
type EngineConfig struct {
	Batch      market.BatchOptions
	StaleAfter time.Duration
}

// New creates an Engine over the given store and market client.
func New(st store.Store, client market.Client, cfg EngineConfig) *Engine {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	return &Engine{
		store:      st,
		client:     client,
		batch:      cfg.Batch,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
		log:        zap.L().With(zap.String("component", "relicsync")),
	}
}

// Options selects per-run behavior.
type Options struct {
	// TriggeredBy records who started the run ("cli", "http", "profile").
	TriggeredBy string
	// AssumeStale forces a full price update even when the newest
	// observation is within the staleness window.
	AssumeStale bool
	// RefreshSetPrices re-projects stored set documents against current raw
	// prices after the main pipeline.
	RefreshSetPrices bool
	// RefreshRelicPrices does the same for relic documents.
	RefreshRelicPrices bool
}

// Run executes the full pipeline and records the run in the sync-run log.
// The returned state reflects which collections were left clean.
func (e *Engine) Run(ctx context.Context, opts Options) (SyncState, error) {
	runID, err := e.store.StartRun(ctx, opts.TriggeredBy)
	if err != nil {
		return SyncState{}, eris.Wrap(err, "relicsync: start run")
	}

	state, written, err := e.run(ctx, opts)
	if err != nil {
		if failErr := e.store.FailRun(ctx, runID, err.Error()); failErr != nil {
			e.log.Error("could not record failed run", zap.String("run_id", runID), zap.Error(failErr))
		}
		return state, err
	}

	if err := e.store.CompleteRun(ctx, runID, written); err != nil {
		return state, eris.Wrap(err, "relicsync: complete run")
	}
	e.log.Info("sync run complete",
		zap.String("run_id", runID),
		zap.Int64("rows_written", written),
		zap.Bool("clean", state.Clean()))
	return state, nil
}

func (e *Engine) run(ctx context.Context, opts Options) (SyncState, int64, error) {
	entries, err := e.client.Items(ctx)
	if err != nil {
		return SyncState{}, 0, eris.Wrap(err, "relicsync: fetch catalog")
	}
	part := catalog.PartitionEntries(entries)
	e.log.Info("catalog fetched",
		zap.Int("entries", len(entries)),
		zap.Int("parts", len(part.Parts)),
		zap.Int("sets", len(part.Sets)),
		zap.Int("relics", len(part.Relics)))

	state, err := Audit(ctx, e.store, part, e.now(), e.staleAfter)
	if err != nil {
		return SyncState{}, 0, err
	}
	state.RefreshSetPrices = opts.RefreshSetPrices
	state.RefreshRelicPrices = opts.RefreshRelicPrices
	if opts.AssumeStale {
		state = state.WithStalePrices()
	}

	var total int64

	state, n, err := e.syncRaw(ctx, state)
	if err != nil {
		return state, total, err
	}
	total += n

	state, n, err = e.buildSets(ctx, state)
	if err != nil {
		return state, total, err
	}
	total += n

	state, n, err = e.buildRelics(ctx, state)
	if err != nil {
		return state, total, err
	}
	total += n

	if state.RefreshSetPrices {
		n, err = e.refreshSetPrices(ctx)
		if err != nil {
			return state, total, err
		}
		total += n
	}
	if state.RefreshRelicPrices {
		n, err = e.refreshRelicPrices(ctx)
		if err != nil {
			return state, total, err
		}
		total += n
	}

	return state, total, nil
}

// Status audits without writing: it fetches the catalog, classifies it, and
// returns the resulting snapshot.
func (e *Engine) Status(ctx context.Context) (SyncState, error) {
	entries, err := e.client.Items(ctx)
	if err != nil {
		return SyncState{}, eris.Wrap(err, "relicsync: fetch catalog")
	}
	return Audit(ctx, e.store, catalog.PartitionEntries(entries), e.now(), e.staleAfter)
}
