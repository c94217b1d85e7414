// Package model holds the persisted document shapes owned by the sync
// writer's target collections. Nothing here outlives a synchronization run
// except through the store.
package model

import "time"

// Subtypes is the fixed tier label attached to every relic document.
const Subtypes = "intact, exceptional, flawless, radiant"

// BonusRewardURL names the synthetic reward appended when a fully populated
// drop table under-represents a rarity tier.
const BonusRewardURL = "forma_blueprint"

// Rarity tiers as returned by the dropsources endpoint.
const (
	RarityCommon   = "common"
	RarityUncommon = "uncommon"
	RarityRare     = "rare"
)

// PricePair is the two scalar price summaries derived from a statistics
// payload: the mid-term (90 day) and recent (48 hour) averages.
type PricePair struct {
	P90d float64 `json:"price_90d"`
	P48h float64 `json:"price_48h"`
}

// RawPrice is one raw price record, keyed by item ID.
type RawPrice struct {
	ItemID     string    `json:"item_id"`
	URLName    string    `json:"url_name"`
	Price90d   float64   `json:"price_90d"`
	Price48h   float64   `json:"price_48h"`
	ObservedAt time.Time `json:"observed_at"`
}

// DropRef is one (relic, rarity) drop source of a part.
type DropRef struct {
	RelicURL string `json:"relic_url"`
	Rarity   string `json:"rarity"`
}

// PartEntry is one constituent part embedded in a set document.
type PartEntry struct {
	URLName        string    `json:"url_name"`
	ItemID         string    `json:"item_id"`
	DisplayName    string    `json:"display_name"`
	Ducats         int       `json:"ducats"`
	TradingTax     int       `json:"trading_tax"`
	QuantityForSet int       `json:"quantity_for_set"`
	Price          PricePair `json:"price"`
	Sources        []DropRef `json:"sources"`
}

// SetDocument is one derived composite-set record, keyed by set ID.
type SetDocument struct {
	SetID  string      `json:"set_id"`
	SetURL string      `json:"set_url"`
	Price  PricePair   `json:"price_set"`
	Parts  []PartEntry `json:"parts_in_set"`
}

// RewardEntry is one entry of a relic's reward table. The synthetic bonus
// entry carries only PartURL and Rarity.
type RewardEntry struct {
	PartURL  string  `json:"part_url"`
	PartID   string  `json:"part_id,omitempty"`
	Rarity   string  `json:"rarity"`
	Price90d float64 `json:"price_90d,omitempty"`
	Price48h float64 `json:"price_48h,omitempty"`
}

// Bonus reports whether this is the locally inferred reward entry.
func (r RewardEntry) Bonus() bool {
	return r.PartURL == BonusRewardURL && r.PartID == ""
}

// RelicDocument is one derived container record, keyed by relic ID.
type RelicDocument struct {
	RelicID     string        `json:"relic_id"`
	RelicURL    string        `json:"relic_url"`
	DisplayName string        `json:"display_name"`
	Price       PricePair     `json:"price"`
	Subtypes    string        `json:"subtypes"`
	Rewards     []RewardEntry `json:"rewards"`
}

// Equal compares every persisted field of two raw price records.
func (p RawPrice) Equal(other RawPrice) bool {
	return p.ItemID == other.ItemID &&
		p.URLName == other.URLName &&
		p.Price90d == other.Price90d &&
		p.Price48h == other.Price48h &&
		p.ObservedAt.Equal(other.ObservedAt)
}

// Equal compares every persisted field of two set documents.
func (d SetDocument) Equal(other SetDocument) bool {
	if d.SetID != other.SetID || d.SetURL != other.SetURL || d.Price != other.Price {
		return false
	}
	if len(d.Parts) != len(other.Parts) {
		return false
	}
	for i := range d.Parts {
		if !d.Parts[i].Equal(other.Parts[i]) {
			return false
		}
	}
	return true
}

// Equal compares every field of two part entries, sources included.
func (p PartEntry) Equal(other PartEntry) bool {
	if p.URLName != other.URLName || p.ItemID != other.ItemID ||
		p.DisplayName != other.DisplayName || p.Ducats != other.Ducats ||
		p.TradingTax != other.TradingTax || p.QuantityForSet != other.QuantityForSet ||
		p.Price != other.Price {
		return false
	}
	if len(p.Sources) != len(other.Sources) {
		return false
	}
	for i := range p.Sources {
		if p.Sources[i] != other.Sources[i] {
			return false
		}
	}
	return true
}

// Equal compares every persisted field of two relic documents.
func (d RelicDocument) Equal(other RelicDocument) bool {
	if d.RelicID != other.RelicID || d.RelicURL != other.RelicURL ||
		d.DisplayName != other.DisplayName || d.Price != other.Price ||
		d.Subtypes != other.Subtypes {
		return false
	}
	if len(d.Rewards) != len(other.Rewards) {
		return false
	}
	for i := range d.Rewards {
		if d.Rewards[i] != other.Rewards[i] {
			return false
		}
	}
	return true
}
