// Package relicsync is the synchronization engine: it audits the local
// collections against the freshly fetched catalog, fetches what is missing or
// stale under the rate budget, derives the composite documents in process,
// and writes results back idempotently.
package relicsync

import (
	"time"

	"github.com/squad-relic/relic-sync/internal/catalog"
)

// SyncState is the per-run audit snapshot. It is produced once by Audit and
// passed by value into every stage; stages return updated copies at write
// boundaries instead of mutating shared state.
//
// Invariants: RawPresent implies the raw collection is non-empty, and
// !RawIntact implies !PricesFresh (no trustworthy timestamp exists).
type SyncState struct {
	RawIntact  bool `json:"raw_intact"`
	RawPresent bool `json:"raw_present"`

	SetsIntact  bool `json:"sets_intact"`
	SetsPresent bool `json:"sets_present"`

	RelicsIntact  bool `json:"relics_intact"`
	RelicsPresent bool `json:"relics_present"`

	PricesFresh bool `json:"prices_fresh"`

	// Manual overrides carried from the caller, never set by the auditor.
	RefreshSetPrices   bool `json:"refresh_set_prices,omitempty"`
	RefreshRelicPrices bool `json:"refresh_relic_prices,omitempty"`

	ObservedAt time.Time `json:"observed_at"`

	Catalog catalog.Partition `json:"-"`
}

// Clean reports whether every collection is intact and prices are fresh.
func (s SyncState) Clean() bool {
	return s.RawIntact && s.SetsIntact && s.RelicsIntact && s.PricesFresh
}

// WithRawClean returns a copy with the raw collection marked intact, present,
// and freshly priced.
func (s SyncState) WithRawClean() SyncState {
	s.RawIntact = true
	s.RawPresent = true
	s.PricesFresh = true
	return s
}

// WithSetsClean returns a copy with the set collection marked intact.
func (s SyncState) WithSetsClean() SyncState {
	s.SetsIntact = true
	s.SetsPresent = true
	return s
}

// WithRelicsClean returns a copy with the relic collection marked intact.
func (s SyncState) WithRelicsClean() SyncState {
	s.RelicsIntact = true
	s.RelicsPresent = true
	return s
}

// WithStalePrices returns a copy with PricesFresh forced off, the manual
// override for "prices changed, composition didn't".
func (s SyncState) WithStalePrices() SyncState {
	s.PricesFresh = false
	return s
}
