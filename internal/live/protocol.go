// Package live implements the viewer side of the live-shopping channel:
// the credential exchange, the push channel, event decoding, state
// reconciliation, and the connection supervisor that ties them together.
//
// This package also owns the wire contract. The server hub imports these
// types so both ends marshal the same shapes.
package live

import (
	"encoding/json"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

// Wire event names. An envelope with an empty event name carries a SYNC;
// that mirrors the original default-event semantics and lets the server
// emit snapshots without naming them.
const (
	EventSync          = "SYNC"
	EventCartUpdated   = "CART_UPDATED"
	EventSessionStatus = "SESSION_STATUS"
	EventHighlighted   = "HIGHLIGHTED"
)

// Envelope frames every channel message.
type Envelope struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// SyncPayload is a full-state snapshot. Both fields are optional; an
// absent field leaves the viewer's prior state untouched.
type SyncPayload struct {
	Cart   *cart.Snapshot `json:"cart,omitempty"`
	Status string         `json:"status,omitempty"`
}

// StatusPayload carries a session status change.
type StatusPayload struct {
	Status string `json:"status"`
}

// HighlightPayload names the batch the host is presenting.
type HighlightPayload struct {
	BatchID int64 `json:"batchId"`
}

// ExchangeRequest trades a session token for a channel handle. The token
// travels only in this request body, never in a URL.
type ExchangeRequest struct {
	Token    string `json:"token"`
	RoomCode string `json:"roomCode"`
}

// ExchangeResponse returns the short-lived channel handle.
type ExchangeResponse struct {
	SSESessionID string `json:"sseSessionId"`
}

// ErrorResponse is the body of any non-2xx exchange response.
type ErrorResponse struct {
	Error string `json:"error"`
}
