package live

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

// Kind discriminates decoded events.
type Kind int

const (
	KindSync Kind = iota
	KindCartUpdated
	KindSessionStatus
	KindHighlighted
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return EventSync
	case KindCartUpdated:
		return EventCartUpdated
	case KindSessionStatus:
		return EventSessionStatus
	case KindHighlighted:
		return EventHighlighted
	}
	return "unknown"
}

// Event is one decoded channel message. Which fields are set depends on
// Kind:
//
//	KindSync          Cart (optional), Status (optional)
//	KindCartUpdated   Cart (aggregated form) or Items (raw-list form)
//	KindSessionStatus Status
//	KindHighlighted   BatchID
type Event struct {
	Kind    Kind
	Cart    *cart.Snapshot
	Items   []cart.Item
	Status  string
	BatchID int64
}

// Decode parses one raw channel message into a typed event. A decode
// error means the message is dropped; it never tears down the channel,
// so the caller just logs and moves on to the next message.
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case "", EventSync:
		var p SyncPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", EventSync, err)
		}
		return Event{Kind: KindSync, Cart: p.Cart, Status: p.Status}, nil

	case EventCartUpdated:
		return decodeCartUpdated(env.Data)

	case EventSessionStatus:
		var p StatusPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", EventSessionStatus, err)
		}
		if p.Status == "" {
			return Event{}, fmt.Errorf("%s payload missing status", EventSessionStatus)
		}
		return Event{Kind: KindSessionStatus, Status: p.Status}, nil

	case EventHighlighted:
		var p struct {
			BatchID *int64 `json:"batchId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", EventHighlighted, err)
		}
		if p.BatchID == nil {
			return Event{}, fmt.Errorf("%s payload missing batchId", EventHighlighted)
		}
		return Event{Kind: KindHighlighted, BatchID: *p.BatchID}, nil
	}

	return Event{}, fmt.Errorf("unknown event %q", env.Event)
}

// decodeCartUpdated accepts both payload forms the server may send: a
// bare item list or a pre-aggregated snapshot object.
func decodeCartUpdated(data json.RawMessage) (Event, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return Event{}, fmt.Errorf("empty %s payload", EventCartUpdated)
	}

	if trimmed[0] == '[' {
		var items []cart.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return Event{}, fmt.Errorf("decode %s item list: %w", EventCartUpdated, err)
		}
		return Event{Kind: KindCartUpdated, Items: items}, nil
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Event{}, fmt.Errorf("decode %s snapshot: %w", EventCartUpdated, err)
	}
	return Event{Kind: KindCartUpdated, Cart: &snap}, nil
}
