package cart

import (
	"testing"
)

func TestFromItems_Totals(t *testing.T) {
	tests := []struct {
		name      string
		items     []Item
		wantTotal string
		wantCount int
	}{
		{
			name: "two lines",
			items: []Item{
				{BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
				{BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
			},
			wantTotal: "25.50",
			wantCount: 2,
		},
		{
			name:      "empty list",
			items:     nil,
			wantTotal: "0.00",
			wantCount: 0,
		},
		{
			name: "fractional quantities",
			items: []Item{
				{BatchID: 3, Quantity: "0.5", UnitPrice: "100.00"},
				{BatchID: 4, Quantity: "1.25", UnitPrice: "4.00"},
			},
			wantTotal: "55.00",
			wantCount: 2,
		},
		{
			name: "non-numeric quantity contributes zero",
			items: []Item{
				{BatchID: 5, Quantity: "abc", UnitPrice: "10.00"},
				{BatchID: 6, Quantity: "3", UnitPrice: "2.00"},
			},
			wantTotal: "6.00",
			wantCount: 2,
		},
		{
			name: "non-numeric price contributes zero",
			items: []Item{
				{BatchID: 7, Quantity: "2", UnitPrice: ""},
			},
			wantTotal: "0.00",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromItems(tt.items)
			if got.TotalValue != tt.wantTotal {
				t.Errorf("TotalValue = %q, want %q", got.TotalValue, tt.wantTotal)
			}
			if got.ItemCount != tt.wantCount {
				t.Errorf("ItemCount = %d, want %d", got.ItemCount, tt.wantCount)
			}
		})
	}
}

func TestFromItems_LineSubtotals(t *testing.T) {
	items := []Item{
		{BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
		{BatchID: 2, Quantity: "oops", UnitPrice: "5.50"},
	}

	got := FromItems(items)

	if got.Items[0].Subtotal != "20.00" {
		t.Errorf("subtotal = %q, want 20.00", got.Items[0].Subtotal)
	}
	if got.Items[1].Subtotal != "0.00" {
		t.Errorf("unparseable line subtotal = %q, want 0.00", got.Items[1].Subtotal)
	}
	if items[0].Subtotal != "" {
		t.Error("input slice was mutated")
	}
}

func TestHighlighted_Projection(t *testing.T) {
	snap := FromItems([]Item{
		{ID: 1, BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
		{ID: 2, BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
		{ID: 3, BatchID: 2, Quantity: "4", UnitPrice: "1.00"},
	})

	got := snap.Highlighted(2)

	wantFlags := []bool{false, true, true}
	for i, want := range wantFlags {
		if got.Items[i].IsHighlighted != want {
			t.Errorf("item %d IsHighlighted = %v, want %v", i, got.Items[i].IsHighlighted, want)
		}
	}

	// No match clears every flag.
	got = got.Highlighted(99)
	for i := range got.Items {
		if got.Items[i].IsHighlighted {
			t.Errorf("item %d still highlighted after no-match projection", i)
		}
	}
}

func TestHighlighted_DoesNotMutateReceiver(t *testing.T) {
	snap := FromItems([]Item{
		{ID: 1, BatchID: 1, Quantity: "1", UnitPrice: "1.00"},
	})

	snap.Highlighted(1)

	if snap.Items[0].IsHighlighted {
		t.Error("receiver was mutated by Highlighted")
	}
}

func TestClone_Independence(t *testing.T) {
	snap := FromItems([]Item{
		{ID: 1, BatchID: 1, Quantity: "1", UnitPrice: "1.00"},
	})

	c := snap.Clone()
	c.Items[0].Quantity = "9"
	c.TotalValue = "9.00"

	if snap.Items[0].Quantity != "1" {
		t.Error("clone shares item storage with original")
	}
	if snap.TotalValue != "1.00" {
		t.Error("clone shares aggregates with original")
	}
}
