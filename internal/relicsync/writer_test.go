package relicsync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/squad-relic/relic-sync/internal/model"
)

func rawKey(r model.RawPrice) string { return r.ItemID }

func TestPlanMissingCollectionInsertsAll(t *testing.T) {
	candidates := []model.RawPrice{{ItemID: "a"}, {ItemID: "b"}}
	ops := Plan(nil, candidates, true, rawKey, model.RawPrice.Equal)
	assert.Equal(t, candidates, ops)
}

func TestPlanSkipsEqualDocuments(t *testing.T) {
	existing := []model.RawPrice{
		{ItemID: "a", URLName: "ash_prime_blueprint", Price90d: 10},
		{ItemID: "b", URLName: "ash_prime_chassis", Price90d: 20},
	}
	candidates := []model.RawPrice{
		{ItemID: "a", URLName: "ash_prime_blueprint", Price90d: 10}, // unchanged
		{ItemID: "b", URLName: "ash_prime_chassis", Price90d: 25},  // price moved
		{ItemID: "c", URLName: "ash_prime_systems", Price90d: 5},   // new
	}

	ops := Plan(existing, candidates, false, rawKey, model.RawPrice.Equal)
	assert.Len(t, ops, 2)
	assert.Equal(t, "b", ops[0].ItemID)
	assert.Equal(t, "c", ops[1].ItemID)
}

func TestPlanAllEqualYieldsNoOps(t *testing.T) {
	docs := []model.RawPrice{{ItemID: "a", Price90d: 10}, {ItemID: "b", Price90d: 20}}
	ops := Plan(docs, docs, false, rawKey, model.RawPrice.Equal)
	assert.Empty(t, ops)
}

func TestPlanSetDocumentsCompareDeep(t *testing.T) {
	base := model.SetDocument{
		SetID:  "s1",
		SetURL: "ash_prime_set",
		Parts:  []model.PartEntry{{URLName: "ash_prime_blueprint", Sources: []model.DropRef{{RelicURL: "lith_a1_relic", Rarity: model.RarityRare}}}},
	}
	changed := base
	changed.Parts = []model.PartEntry{{URLName: "ash_prime_blueprint", Sources: []model.DropRef{{RelicURL: "lith_a1_relic", Rarity: model.RarityCommon}}}}

	key := func(d model.SetDocument) string { return d.SetID }
	ops := Plan([]model.SetDocument{base}, []model.SetDocument{changed}, false, key, model.SetDocument.Equal)
	assert.Len(t, ops, 1)

	ops = Plan([]model.SetDocument{base}, []model.SetDocument{base}, false, key, model.SetDocument.Equal)
	assert.Empty(t, ops)
}
