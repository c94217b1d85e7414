package relicsync

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/store"
)

// DefaultStaleAfter is the staleness window: a raw price record older than
// this is outdated.
const DefaultStaleAfter = 24 * time.Hour

// Audit compares the stored collections against the classified catalog and
// produces the run's SyncState. Counts are a cheap, sufficient proxy for
// "needs a full re-derive": the auditor never diffs content, only presence
// and staleness.
func Audit(ctx context.Context, st store.Store, part catalog.Partition, now time.Time, staleAfter time.Duration) (SyncState, error) {
	counts, err := st.Counts(ctx)
	if err != nil {
		return SyncState{}, eris.Wrap(err, "relicsync: audit counts")
	}

	state := SyncState{
		RawIntact:     counts.Raw == int64(part.Total()),
		RawPresent:    counts.Raw != 0,
		SetsIntact:    counts.Sets == int64(len(part.Sets)),
		SetsPresent:   counts.Sets != 0,
		RelicsIntact:  counts.Relics == int64(len(part.Relics)),
		RelicsPresent: counts.Relics != 0,
		ObservedAt:    now,
		Catalog:       part,
	}

	// The newest observation is consulted only when the raw collection is
	// trusted; an untrusted collection has no meaningful timestamp.
	if state.RawIntact {
		newest, err := st.NewestObservation(ctx)
		if err != nil {
			return SyncState{}, eris.Wrap(err, "relicsync: audit newest observation")
		}
		state.PricesFresh = newest != nil && now.Sub(*newest) <= staleAfter
	}

	zap.L().With(zap.String("component", "relicsync")).Debug("audit complete",
		zap.Int64("raw_count", counts.Raw),
		zap.Int("catalog_total", part.Total()),
		zap.Bool("raw_intact", state.RawIntact),
		zap.Bool("sets_intact", state.SetsIntact),
		zap.Bool("relics_intact", state.RelicsIntact),
		zap.Bool("prices_fresh", state.PricesFresh))

	return state, nil
}
