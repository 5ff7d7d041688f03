package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

func twoItemList() []cart.Item {
	return []cart.Item{
		{ID: 1, BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
		{ID: 2, BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
	}
}

func TestReconcileSyncReplacesWholesale(t *testing.T) {
	snap := cart.FromItems(twoItemList())
	prev := State{SessionStatus: "PAUSED"}

	next := Reconcile(prev, Event{Kind: KindSync, Cart: &snap, Status: "ACTIVE"})

	require.NotNil(t, next.Cart)
	assert.Equal(t, "25.50", next.Cart.TotalValue)
	assert.Equal(t, 2, next.Cart.ItemCount)
	assert.Equal(t, "ACTIVE", next.SessionStatus)
}

func TestReconcileSyncAbsentFieldsLeavePriorState(t *testing.T) {
	snap := cart.FromItems(twoItemList())
	prev := State{Cart: &snap, SessionStatus: "ACTIVE"}

	next := Reconcile(prev, Event{Kind: KindSync, Status: "PAUSED"})
	require.NotNil(t, next.Cart)
	assert.Equal(t, "25.50", next.Cart.TotalValue, "absent cart must not clear prior cart")
	assert.Equal(t, "PAUSED", next.SessionStatus)

	next = Reconcile(prev, Event{Kind: KindSync})
	assert.Equal(t, "ACTIVE", next.SessionStatus, "absent status must not clear prior status")
}

func TestReconcileCartUpdatedRawListRecomputes(t *testing.T) {
	next := Reconcile(State{}, Event{Kind: KindCartUpdated, Items: twoItemList()})

	require.NotNil(t, next.Cart)
	assert.Equal(t, "25.50", next.Cart.TotalValue)
	assert.Equal(t, 2, next.Cart.ItemCount)
}

func TestReconcileCartUpdatedRawListIgnoresBadNumbers(t *testing.T) {
	items := []cart.Item{
		{ID: 1, BatchID: 1, Quantity: "oops", UnitPrice: "10.00"},
		{ID: 2, BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
	}

	next := Reconcile(State{}, Event{Kind: KindCartUpdated, Items: items})

	require.NotNil(t, next.Cart)
	assert.Equal(t, "5.50", next.Cart.TotalValue, "unparseable line contributes zero")
	assert.Equal(t, 2, next.Cart.ItemCount)
}

func TestReconcileCartUpdatedAggregatedTrustsPayload(t *testing.T) {
	// The aggregated form is trusted as sent, even when the numbers
	// would not recompute to the same values.
	snap := cart.Snapshot{
		Items:      twoItemList(),
		TotalValue: "99.99",
		ItemCount:  7,
	}

	next := Reconcile(State{}, Event{Kind: KindCartUpdated, Cart: &snap})

	require.NotNil(t, next.Cart)
	assert.Equal(t, "99.99", next.Cart.TotalValue)
	assert.Equal(t, 7, next.Cart.ItemCount)
}

func TestReconcileSessionStatusTouchesOnlyStatus(t *testing.T) {
	snap := cart.FromItems(twoItemList())
	id := int64(1)
	prev := State{Cart: &snap, SessionStatus: "ACTIVE", HighlightedBatchID: &id}

	next := Reconcile(prev, Event{Kind: KindSessionStatus, Status: "ENDED"})

	assert.Equal(t, "ENDED", next.SessionStatus)
	require.NotNil(t, next.Cart)
	assert.Equal(t, "25.50", next.Cart.TotalValue)
	require.NotNil(t, next.HighlightedBatchID)
	assert.Equal(t, int64(1), *next.HighlightedBatchID)
}

func TestReconcileHighlightedProjectsFlags(t *testing.T) {
	snap := cart.FromItems([]cart.Item{
		{ID: 1, BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
		{ID: 2, BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
		{ID: 3, BatchID: 2, Quantity: "3", UnitPrice: "1.00"},
	})
	prev := State{Cart: &snap}

	next := Reconcile(prev, Event{Kind: KindHighlighted, BatchID: 2})

	require.NotNil(t, next.HighlightedBatchID)
	assert.Equal(t, int64(2), *next.HighlightedBatchID)
	flags := []bool{}
	for _, it := range next.Cart.Items {
		flags = append(flags, it.IsHighlighted)
	}
	assert.Equal(t, []bool{false, true, true}, flags)

	// Re-highlighting another batch rewrites the projection in full.
	next = Reconcile(next, Event{Kind: KindHighlighted, BatchID: 1})
	flags = flags[:0]
	for _, it := range next.Cart.Items {
		flags = append(flags, it.IsHighlighted)
	}
	assert.Equal(t, []bool{true, false, false}, flags)
}

func TestReconcileHighlightedWithNoCart(t *testing.T) {
	next := Reconcile(State{}, Event{Kind: KindHighlighted, BatchID: 5})

	require.NotNil(t, next.HighlightedBatchID)
	assert.Equal(t, int64(5), *next.HighlightedBatchID)
	assert.Nil(t, next.Cart)
}

func TestReconcileCartReplacementKeepsHighlightProjection(t *testing.T) {
	id := int64(2)
	prev := State{HighlightedBatchID: &id}

	// Incoming items carry no flags; the known highlight is reprojected.
	next := Reconcile(prev, Event{Kind: KindCartUpdated, Items: twoItemList()})

	require.NotNil(t, next.Cart)
	assert.False(t, next.Cart.Items[0].IsHighlighted)
	assert.True(t, next.Cart.Items[1].IsHighlighted)
}

func TestReconcileIsIdempotentPerEvent(t *testing.T) {
	snap := cart.FromItems(twoItemList())
	base := State{Cart: &snap, SessionStatus: "ACTIVE"}

	events := []Event{
		{Kind: KindSync, Cart: &snap, Status: "ACTIVE"},
		{Kind: KindSync, Status: "PAUSED"},
		{Kind: KindCartUpdated, Items: twoItemList()},
		{Kind: KindCartUpdated, Cart: &snap},
		{Kind: KindSessionStatus, Status: "ENDED"},
		{Kind: KindHighlighted, BatchID: 2},
		{Kind: KindHighlighted, BatchID: 99},
	}

	for _, ev := range events {
		once := Reconcile(base, ev)
		twice := Reconcile(once, ev)
		assert.Equal(t, once, twice, "event %s applied twice must equal applied once", ev.Kind)
	}
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	snap := cart.FromItems(twoItemList())
	prev := State{Cart: &snap, SessionStatus: "ACTIVE"}

	Reconcile(prev, Event{Kind: KindHighlighted, BatchID: 1})

	assert.False(t, snap.Items[0].IsHighlighted, "prior state was mutated")
	assert.Nil(t, prev.HighlightedBatchID)
}
