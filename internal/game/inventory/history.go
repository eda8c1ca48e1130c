package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source tags where a history record came from.
type Source string

const (
	SourceCase    Source = "case"
	SourceUpgrade Source = "upgrade"
	SourceSell    Source = "sell"
	SourceShop    Source = "shop"
)

// HistoryLimit bounds the number of retained records.
const HistoryLimit = 100

// Record is one acquisition or loss. A negative Value marks a loss.
type Record struct {
	ItemID string          `json:"item_id"`
	Name   string          `json:"name"`
	Rarity Rarity          `json:"rarity"`
	Value  decimal.Decimal `json:"value"`
	Source Source          `json:"source"`
	At     time.Time       `json:"at"`
}

// History is a bounded, newest-first record list.
type History struct {
	records []Record
}

// NewHistory returns an empty History.
func NewHistory() *History { return &History{} }

// HistoryFrom rebuilds a history from saved records.
func HistoryFrom(records []Record) *History {
	h := &History{records: append([]Record(nil), records...)}
	if len(h.records) > HistoryLimit {
		h.records = h.records[:HistoryLimit]
	}
	return h
}

// Append records r as the newest entry, evicting the oldest past HistoryLimit.
func (h *History) Append(r Record) {
	h.records = append([]Record{r}, h.records...)
	if len(h.records) > HistoryLimit {
		h.records = h.records[:HistoryLimit]
	}
}

// Gain records a positive entry for it.
func (h *History) Gain(it *Item, src Source, at time.Time) {
	h.Append(Record{ItemID: it.ID, Name: it.Name, Rarity: it.Rarity, Value: it.Value, Source: src, At: at})
}

// Loss records a negative entry for it.
func (h *History) Loss(it *Item, src Source, at time.Time) {
	h.Append(Record{ItemID: it.ID, Name: it.Name, Rarity: it.Rarity, Value: it.Value.Neg(), Source: src, At: at})
}

// Records returns a copy of the records, newest first.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}
