// Package cart models the server-owned live-shopping cart that viewers
// mirror read-only. It is a leaf package with no internal imports so both
// the server hub and the viewer client can share it.
package cart

import (
	"strconv"
)

// Item is one cart line as it travels on the wire. Quantity, UnitPrice
// and Subtotal are decimal strings: the server serializes its numeric
// columns without rounding and clients must not assume they parse.
type Item struct {
	ID            int64  `json:"id"`
	BatchID       int64  `json:"batchId"`
	BatchCode     string `json:"batchCode,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unitPrice"`
	Subtotal      string `json:"subtotal,omitempty"`
	IsHighlighted bool   `json:"isHighlighted"`
}

// Snapshot is the full cart: ordered line items plus denormalized
// aggregates.
type Snapshot struct {
	Items      []Item `json:"items"`
	TotalValue string `json:"totalValue"`
	ItemCount  int    `json:"itemCount"`
}

// FromItems builds a snapshot from a bare item list, recomputing the
// aggregates and each line's subtotal from the items. A line whose
// quantity or unit price does not parse contributes zero to the total
// instead of poisoning it. The input slice is not mutated.
func FromItems(items []Item) Snapshot {
	lines := make([]Item, len(items))
	copy(lines, items)

	total := 0.0
	for i, it := range lines {
		v := lineValue(it)
		total += v
		lines[i].Subtotal = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return Snapshot{
		Items:      lines,
		TotalValue: strconv.FormatFloat(total, 'f', 2, 64),
		ItemCount:  len(lines),
	}
}

func lineValue(it Item) float64 {
	qty, err := strconv.ParseFloat(it.Quantity, 64)
	if err != nil {
		return 0
	}
	price, err := strconv.ParseFloat(it.UnitPrice, 64)
	if err != nil {
		return 0
	}
	return qty * price
}

// Highlighted returns a copy of the snapshot with every item's highlight
// flag recomputed as batchId == batchID. The flag is a projection of the
// highlighted batch, never independent state, so it is rewritten in full
// on every call. Zero, one, or many items may match.
func (s Snapshot) Highlighted(batchID int64) Snapshot {
	c := s.Clone()
	for i := range c.Items {
		c.Items[i].IsHighlighted = c.Items[i].BatchID == batchID
	}
	return c
}

// Clone returns a deep copy of the snapshot so the copy can be mutated
// independently of the original.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Items != nil {
		c.Items = make([]Item, len(s.Items))
		copy(c.Items, s.Items)
	}
	return c
}
