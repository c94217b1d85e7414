package market

import "github.com/squad-relic/relic-sync/internal/catalog"

// Wire shapes for the four consumed endpoints. Every response arrives inside
// a payload envelope.

type itemsEnvelope struct {
	Payload struct {
		Items []catalog.Entry `json:"items"`
	} `json:"payload"`
}

// PricePoint is one observation in a statistics window. The upstream API
// reports missing observations as null rather than omitting them.
type PricePoint struct {
	AvgPrice *float64 `json:"avg_price"`
}

type statisticsEnvelope struct {
	Payload struct {
		StatisticsClosed map[string][]PricePoint `json:"statistics_closed"`
		StatisticsLive   map[string][]PricePoint `json:"statistics_live"`
	} `json:"payload"`
}

const (
	closedWindow = "90days"
	liveWindow   = "48hours"
)

// Statistics is the raw price history of one item: a closed mid-term window
// and a live recent window.
type Statistics struct {
	Closed []PricePoint
	Live   []PricePoint
}

// SetItem is one member of an item's set listing.
type SetItem struct {
	URLName        string `json:"url_name"`
	ID             string `json:"id"`
	Ducats         int    `json:"ducats"`
	TradingTax     int    `json:"trading_tax"`
	QuantityForSet int    `json:"quantity_for_set"`
	En             struct {
		ItemName string `json:"item_name"`
	} `json:"en"`
}

type itemEnvelope struct {
	Payload struct {
		Item struct {
			ItemsInSet []SetItem `json:"items_in_set"`
		} `json:"item"`
	} `json:"payload"`
}

// DropSource is one drop listing of a part: an opaque comma-separated
// composite of relic identifiers plus the rarity tier.
type DropSource struct {
	Relic  string `json:"relic"`
	Rarity string `json:"rarity"`
}

type dropsourcesEnvelope struct {
	Payload struct {
		Dropsources []DropSource `json:"dropsources"`
	} `json:"payload"`
}
