package room

import (
	"errors"
	"testing"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

func mustCreate(t *testing.T, s *Store, code string) *Session {
	t.Helper()
	sess, err := s.Create(code, "Friday Drop", "Dana")
	if err != nil {
		t.Fatalf("Create(%q): %v", code, err)
	}
	return sess
}

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	created := mustCreate(t, s, "ROOM-1")

	if created.Status != StatusActive {
		t.Errorf("new room status = %q, want %q", created.Status, StatusActive)
	}
	if created.Cart.ItemCount != 0 || created.Cart.TotalValue != "0.00" {
		t.Errorf("new room cart not empty: %+v", created.Cart)
	}

	got, ok := s.Get("ROOM-1")
	if !ok {
		t.Fatal("Get: room missing")
	}
	if got.Title != "Friday Drop" || got.HostName != "Dana" {
		t.Errorf("Get returned %+v", got)
	}

	if _, ok := s.Get("ROOM-2"); ok {
		t.Error("Get returned a room that was never created")
	}
}

func TestCreateDuplicate(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "ROOM-1")

	if _, err := s.Create("ROOM-1", "x", "y"); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate Create: got %v, want ErrExists", err)
	}
}

func TestGetReturnsClone(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "ROOM-1")

	got, _ := s.Get("ROOM-1")
	got.Title = "tampered"
	got.Cart.Items = append(got.Cart.Items, cart.Item{ID: 99})

	fresh, _ := s.Get("ROOM-1")
	if fresh.Title != "Friday Drop" {
		t.Error("mutation through Get clone leaked into the store")
	}
	if len(fresh.Cart.Items) != 0 {
		t.Error("cart mutation through Get clone leaked into the store")
	}
}

func TestSetStatus(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "ROOM-1")

	if err := s.SetStatus("ROOM-1", StatusPaused); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, _ := s.Get("ROOM-1")
	if got.Status != StatusPaused {
		t.Errorf("status = %q, want %q", got.Status, StatusPaused)
	}

	if err := s.SetStatus("nope", StatusEnded); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetStatus on missing room: got %v, want ErrNotFound", err)
	}
}

func TestSetCartReappliesHighlight(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "ROOM-1")

	if err := s.SetHighlight("ROOM-1", 2); err != nil {
		t.Fatalf("SetHighlight: %v", err)
	}

	snap := cart.FromItems([]cart.Item{
		{ID: 1, BatchID: 1, Quantity: "2", UnitPrice: "10.00"},
		{ID: 2, BatchID: 2, Quantity: "1", UnitPrice: "5.50"},
	})
	if err := s.SetCart("ROOM-1", snap); err != nil {
		t.Fatalf("SetCart: %v", err)
	}

	got, _ := s.Get("ROOM-1")
	if got.Cart.Items[0].IsHighlighted {
		t.Error("batch 1 should not be highlighted")
	}
	if !got.Cart.Items[1].IsHighlighted {
		t.Error("batch 2 should be highlighted after cart replacement")
	}
	if got.HighlightedBatchID == nil || *got.HighlightedBatchID != 2 {
		t.Errorf("HighlightedBatchID = %v, want 2", got.HighlightedBatchID)
	}
}

func TestActiveCount(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "ROOM-1")
	mustCreate(t, s, "ROOM-2")
	mustCreate(t, s, "ROOM-3")

	if err := s.SetStatus("ROOM-2", StatusEnded); err != nil {
		t.Fatal(err)
	}

	if got := s.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := len(s.Codes()); got != 3 {
		t.Errorf("Codes length = %d, want 3", got)
	}

	s.Remove("ROOM-1")
	if got := len(s.Codes()); got != 2 {
		t.Errorf("Codes length after Remove = %d, want 2", got)
	}
}

func TestKnownStatus(t *testing.T) {
	for _, status := range []string{StatusActive, StatusPaused, StatusEnded} {
		if !KnownStatus(status) {
			t.Errorf("KnownStatus(%q) = false", status)
		}
	}
	if KnownStatus("SHIPPED") {
		t.Error(`KnownStatus("SHIPPED") = true`)
	}
}
