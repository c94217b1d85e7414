package relicsync

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/catalog"
	"github.com/squad-relic/relic-sync/internal/market"
	"github.com/squad-relic/relic-sync/internal/model"
)

// buildSets derives one composite document per set whose category needs a
// rebuild. Member parts are resolved by base-name prefix against the
// classified catalog; their trade metadata and drop sources come from one
// detail fetch and one dropsources fetch per part. The set's own price pair
// comes from its own raw-price record. Missing joins degrade to empty
// sources, never fail the set.
func (e *Engine) buildSets(ctx context.Context, state SyncState) (SyncState, int64, error) {
	if state.SetsIntact {
		return state, 0, nil
	}

	raw, err := e.store.RawPrices(ctx)
	if err != nil {
		return state, 0, eris.Wrap(err, "relicsync: read raw prices")
	}
	rawByID := priceIndex(raw)

	var existing []model.SetDocument
	stored := map[string]bool{}
	if state.SetsPresent {
		existing, err = e.store.SetDocuments(ctx)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: read set documents")
		}
		for _, doc := range existing {
			stored[doc.SetID] = true
		}
	}

	var targets []catalog.Entry
	members := map[string][]catalog.Entry{}
	var partNames []string
	seen := map[string]bool{}
	for _, set := range state.Catalog.Sets {
		if stored[set.ID] {
			continue
		}
		targets = append(targets, set)
		ms := state.Catalog.MembersOf(set.URLName)
		members[set.URLName] = ms
		for _, m := range ms {
			if !seen[m.URLName] {
				seen[m.URLName] = true
				partNames = append(partNames, m.URLName)
			}
		}
	}
	if len(targets) == 0 {
		return state.WithSetsClean(), 0, nil
	}

	details := e.fetchPartDetails(ctx, partNames)
	sources := e.fetchPartSources(ctx, partNames, catalog.NewIndex(state.Catalog.Relics))

	candidates := make([]model.SetDocument, 0, len(targets))
	for _, set := range targets {
		doc := model.SetDocument{
			SetID:  set.ID,
			SetURL: set.URLName,
			Price:  rawByID[set.ID].price(),
		}
		for _, m := range members[set.URLName] {
			entry := model.PartEntry{
				URLName:     m.URLName,
				ItemID:      m.ID,
				DisplayName: catalog.DisplayName(m.URLName),
				Price:       rawByID[m.ID].price(),
				Sources:     sources[m.URLName],
			}
			if d, ok := details[m.URLName]; ok {
				entry.DisplayName = d.En.ItemName
				entry.Ducats = d.Ducats
				entry.TradingTax = d.TradingTax
				entry.QuantityForSet = d.QuantityForSet
			}
			doc.Parts = append(doc.Parts, entry)
		}
		candidates = append(candidates, doc)
	}

	ops := Plan(existing, candidates, !state.SetsPresent,
		func(d model.SetDocument) string { return d.SetID },
		model.SetDocument.Equal)

	var written int64
	if len(ops) > 0 {
		written, err = e.store.UpsertSetDocuments(ctx, ops)
		if err != nil {
			return state, 0, eris.Wrap(err, "relicsync: write set documents")
		}
	}

	e.log.Info("set documents built",
		zap.Int("built", len(candidates)),
		zap.Int("skipped_stored", len(stored)),
		zap.Int64("written", written))
	return state.WithSetsClean(), written, nil
}

// fetchPartDetails fetches each part's set listing and keeps the entry that
// describes the part itself. A failed or unmatched fetch leaves the part out
// of the map; callers fall back to catalog-derived defaults.
func (e *Engine) fetchPartDetails(ctx context.Context, names []string) map[string]market.SetItem {
	results := market.FetchAll(ctx, names, func(ctx context.Context, name string) ([]market.SetItem, error) {
		return e.client.ItemsInSet(ctx, name)
	}, e.batch)

	details := make(map[string]market.SetItem, len(names))
	for i, res := range results {
		if res.Failed() {
			continue
		}
		for _, item := range res.Value {
			if item.URLName == names[i] {
				details[names[i]] = item
				break
			}
		}
	}
	return details
}

// fetchPartSources fetches each part's drop listing and cross-references the
// composite relic identifiers back to catalog names.
func (e *Engine) fetchPartSources(ctx context.Context, names []string, index *catalog.Index) map[string][]model.DropRef {
	results := market.FetchAll(ctx, names, func(ctx context.Context, name string) ([]market.DropSource, error) {
		return e.client.DropSources(ctx, name)
	}, e.batch)

	sources := make(map[string][]model.DropRef, len(names))
	for i, res := range results {
		if res.Failed() {
			continue
		}
		var refs []model.DropRef
		for _, ds := range res.Value {
			for _, relicURL := range index.ResolveSource(ds.Relic) {
				refs = append(refs, model.DropRef{RelicURL: relicURL, Rarity: ds.Rarity})
			}
		}
		sources[names[i]] = refs
	}
	return sources
}

// priceView wraps an optional raw record lookup.
type priceView struct {
	record model.RawPrice
	ok     bool
}

func (v priceView) price() model.PricePair {
	if !v.ok {
		return model.PricePair{}
	}
	return model.PricePair{P90d: v.record.Price90d, P48h: v.record.Price48h}
}

type rawIndex map[string]priceView

func priceIndex(records []model.RawPrice) rawIndex {
	ix := make(rawIndex, len(records))
	for _, r := range records {
		ix[r.ItemID] = priceView{record: r, ok: true}
	}
	return ix
}
