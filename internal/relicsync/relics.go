package relicsync

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/model"
)

// Drop-table completion constants. A fully populated table has exactly five
// natural rewards carrying at least three commons and two uncommons; the
// synthetic bonus entry fills whichever tier is short.
const (
	fullRewardCount = 5
	minCommon       = 3
	minUncommon     = 2
)

// buildRelics derives one document per relic from the set documents already
// in the store. No fetches happen here; the reward table is an in-process
// join over part drop sources.
func (e *Engine) buildRelics(ctx context.Context, state SyncState) (SyncState, int64, error) {
	if state.RelicsIntact {
		return state, 0, nil
	}

	sets, err := e.store.SetDocuments(ctx)
	if err != nil {
		return state, 0, eris.Wrap(err, "relicsync: read set documents")
	}
	raw, err := e.store.RawPrices(ctx)
	if err != nil {
		return state, 0, eris.Wrap(err, "relicsync: read raw prices")
	}
	rawByID := priceIndex(raw)

	var existing []model.RelicDocument
	stored := map[string]bool{}
	if state.RelicsPresent {
		existing, err = e.store.RelicDocuments(ctx)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: read relic documents")
		}
		for _, doc := range existing {
			stored[doc.RelicID] = true
		}
	}

	var targets []catalog.Entry
	for _, relic := range state.Catalog.Relics {
		if stored[relic.ID] {
			continue
		}
		targets = append(targets, relic)
	}

	candidates := DeriveRelics(targets, sets, rawByID)

	ops := Plan(existing, candidates, !state.RelicsPresent,
		func(d model.RelicDocument) string { return d.RelicID },
		model.RelicDocument.Equal)

	var written int64
	if len(ops) > 0 {
		written, err = e.store.UpsertRelicDocuments(ctx, ops)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: write relic documents")
		}
	}

	e.log.Info("relic documents built",
		zap.Int("built", len(candidates)),
		zap.Int("skipped_stored", len(stored)),
		zap.Int64("written", written))
	return state.WithRelicsClean(), written, nil
}

// DeriveRelics assembles one document per relic: every part entry across all
// set documents whose sources reference the relic becomes a reward, then the
// bonus rule tops up an under-represented rarity tier.
func DeriveRelics(relics []catalog.Entry, sets []model.SetDocument, rawByID rawIndex) []model.RelicDocument {
	if len(relics) == 0 {
		return nil
	}

	rewards := make(map[string][]model.RewardEntry, len(relics))
	for _, set := range sets {
		for _, part := range set.Parts {
			for _, src := range part.Sources {
				rewards[src.RelicURL] = append(rewards[src.RelicURL], model.RewardEntry{
					PartURL:  part.URLName,
					PartID:   part.ItemID,
					Rarity:   src.Rarity,
					Price90d: part.Price.P90d,
					Price48h: part.Price.P48h,
				})
			}
		}
	}

	docs := make([]model.RelicDocument, 0, len(relics))
	for _, relic := range relics {
		docs = append(docs, model.RelicDocument{
			RelicID:     relic.ID,
			RelicURL:    relic.URLName,
			DisplayName: catalog.DisplayName(relic.URLName),
			Price:       rawByID[relic.ID].price(),
			Subtypes:    model.Subtypes,
			Rewards:     withBonus(rewards[relic.URLName]),
		})
	}
	return docs
}

// withBonus appends the synthetic reward when a five-entry table
// under-represents a rarity tier. Tables of any other size are returned
// untouched.
func withBonus(rewards []model.RewardEntry) []model.RewardEntry {
	if len(rewards) != fullRewardCount {
		return rewards
	}
	var common, uncommon int
	for _, r := range rewards {
		switch r.Rarity {
		case model.RarityCommon:
			common++
		case model.RarityUncommon:
			uncommon++
		}
	}
	switch {
	case common < minCommon:
		return append(rewards, model.RewardEntry{PartURL: model.BonusRewardURL, Rarity: model.RarityCommon})
	case uncommon < minUncommon:
		return append(rewards, model.RewardEntry{PartURL: model.BonusRewardURL, Rarity: model.RarityUncommon})
	}
	return rewards
}
