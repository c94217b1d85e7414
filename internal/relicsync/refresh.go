package relicsync

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/model"
)

// refreshSetPrices re-projects the stored set documents against the current
// raw prices. Composition is untouched; only price pairs move. Documents
// whose prices did not change are not written.
func (e *Engine) refreshSetPrices(ctx context.Context) (int64, error) {
	sets, err := e.store.SetDocuments(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "relicsync: read set documents")
	}
	raw, err := e.store.RawPrices(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "relicsync: read raw prices")
	}

	candidates := ReprojectSets(sets, priceIndex(raw))
	ops := Plan(sets, candidates, false,
		func(d model.SetDocument) string { return d.SetID },
		model.SetDocument.Equal)

	var written int64
	if len(ops) > 0 {
		written, err = e.store.UpsertSetDocuments(ctx, ops)
		if err != nil {
			return 0, eris.Wrap(err, "relicsync: write set documents")
		}
	}
	e.log.Info("set prices refreshed", zap.Int64("written", written))
	return written, nil
}

// refreshRelicPrices is the relic counterpart of refreshSetPrices.
func (e *Engine) refreshRelicPrices(ctx context.Context) (int64, error) {
	relics, err := e.store.RelicDocuments(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "relicsync: read relic documents")
	}
	raw, err := e.store.RawPrices(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "relicsync: read raw prices")
	}

	candidates := ReprojectRelics(relics, priceIndex(raw))
	ops := Plan(relics, candidates, false,
		func(d model.RelicDocument) string { return d.RelicID },
		model.RelicDocument.Equal)

	var written int64
	if len(ops) > 0 {
		written, err = e.store.UpsertRelicDocuments(ctx, ops)
		if err != nil {
			return 0, eris.Wrap(err, "relicsync: write relic documents")
		}
	}
	e.log.Info("relic prices refreshed", zap.Int64("written", written))
	return written, nil
}

// ReprojectSets returns copies of the given set documents with every price
// pair replaced by the current raw record, joined by ID. An ID with no raw
// record keeps its stored price.
func ReprojectSets(sets []model.SetDocument, rawByID rawIndex) []model.SetDocument {
	out := make([]model.SetDocument, 0, len(sets))
	for _, set := range sets {
		doc := set
		if v, ok := rawByID[set.SetID]; ok {
			doc.Price = v.price()
		}
		doc.Parts = make([]model.PartEntry, len(set.Parts))
		for i, part := range set.Parts {
			doc.Parts[i] = part
			if v, ok := rawByID[part.ItemID]; ok {
				doc.Parts[i].Price = v.price()
			}
		}
		out = append(out, doc)
	}
	return out
}

// ReprojectRelics returns copies of the given relic documents with the relic
// price and every natural reward's prices replaced by the current raw record.
// The synthetic bonus entry carries no price and is left alone.
func ReprojectRelics(relics []model.RelicDocument, rawByID rawIndex) []model.RelicDocument {
	out := make([]model.RelicDocument, 0, len(relics))
	for _, relic := range relics {
		doc := relic
		if v, ok := rawByID[relic.RelicID]; ok {
			doc.Price = v.price()
		}
		doc.Rewards = make([]model.RewardEntry, len(relic.Rewards))
		for i, reward := range relic.Rewards {
			doc.Rewards[i] = reward
			if reward.Bonus() {
				continue
			}
			if v, ok := rawByID[reward.PartID]; ok {
				doc.Rewards[i].Price90d = v.record.Price90d
				doc.Rewards[i].Price48h = v.record.Price48h
			}
		}
		out = append(out, doc)
	}
	return out
}
