// Package room holds the server-side state of live-shopping sessions.
// The server is the sole authority over session status and cart
// contents; viewers only mirror what the hub pushes to them.
package room

import (
	"time"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

// Session status values. The server enumerates these; clients store and
// display them without validating transitions.
const (
	StatusActive = "ACTIVE"
	StatusPaused = "PAUSED"
	StatusEnded  = "ENDED"
)

// KnownStatus reports whether s is one of the statuses the server emits.
func KnownStatus(s string) bool {
	return s == StatusActive || s == StatusPaused || s == StatusEnded
}

// Session is one live-shopping room.
type Session struct {
	RoomCode           string        `json:"roomCode"`
	Title              string        `json:"title"`
	HostName           string        `json:"hostName"`
	Status             string        `json:"status"`
	Cart               cart.Snapshot `json:"cart"`
	HighlightedBatchID *int64        `json:"highlightedBatchId,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy of the session, duplicating pointer and
// slice fields so the copy can be mutated independently of the original.
func (s *Session) Clone() *Session {
	c := *s
	c.Cart = s.Cart.Clone()
	if s.HighlightedBatchID != nil {
		id := *s.HighlightedBatchID
		c.HighlightedBatchID = &id
	}
	return &c
}
