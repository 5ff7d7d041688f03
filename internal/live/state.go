package live

import (
	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

// State is the viewer's mirror of one live session. It starts empty and
// is populated only by channel events; nothing here survives the
// supervisor that owns it.
type State struct {
	Cart               *cart.Snapshot
	SessionStatus      string
	HighlightedBatchID *int64
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	if s.Cart != nil {
		cc := s.Cart.Clone()
		c.Cart = &cc
	}
	if s.HighlightedBatchID != nil {
		id := *s.HighlightedBatchID
		c.HighlightedBatchID = &id
	}
	return c
}

// Reconcile applies one decoded event to the prior state and returns the
// next state. Every case is a wholesale replace or a full projection,
// never an accumulation, so applying the same event twice yields the
// same result. The inputs are not mutated.
func Reconcile(prev State, ev Event) State {
	next := prev.Clone()

	switch ev.Kind {
	case KindSync:
		if ev.Cart != nil {
			next.Cart = replacedCart(*ev.Cart, next.HighlightedBatchID)
		}
		if ev.Status != "" {
			next.SessionStatus = ev.Status
		}

	case KindCartUpdated:
		var snap cart.Snapshot
		if ev.Cart != nil {
			// Pre-aggregated form: trust the provided aggregates.
			snap = *ev.Cart
		} else {
			// Raw-list form: the aggregates that arrive with a bare
			// list are stale by definition, recompute both.
			snap = cart.FromItems(ev.Items)
		}
		next.Cart = replacedCart(snap, next.HighlightedBatchID)

	case KindSessionStatus:
		next.SessionStatus = ev.Status

	case KindHighlighted:
		id := ev.BatchID
		next.HighlightedBatchID = &id
		if next.Cart != nil {
			projected := next.Cart.Highlighted(id)
			next.Cart = &projected
		}
	}

	return next
}

// replacedCart clones an incoming cart and, when a highlight is locally
// known, reprojects it onto the new items so the per-item flags never
// drift from HighlightedBatchID. With no local highlight the server's
// flags are kept as sent.
func replacedCart(snap cart.Snapshot, highlighted *int64) *cart.Snapshot {
	c := snap.Clone()
	if highlighted != nil {
		c = c.Highlighted(*highlighted)
	}
	return &c
}
