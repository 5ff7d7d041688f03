// Package hub is the server side of the live channel: it accepts viewer
// websockets, groups them by room, and fans session updates out to every
// viewer of that room.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
	"github.com/EvanTenenbaum/terp-live/internal/live"
	"github.com/EvanTenenbaum/terp-live/internal/room"
)

type client struct {
	conn     *websocket.Conn
	roomCode string

	// mu guards send against close: the hub queues frames from broadcast
	// goroutines while Remove can run concurrently from the disconnect
	// reader, and a bare close would make those sends panic.
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, roomCode string) *client {
	c := &client{
		conn:     conn,
		roomCode: roomCode,
		send:     make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// trySend queues msg without blocking. It returns false only when a
// live client's buffer is full; a message to an already closed client is
// silently dropped.
func (c *client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub fans room updates out to the viewers watching each room. Writes go
// through per-client buffered channels; a viewer that cannot drain its
// buffer is disconnected rather than allowed to stall the room.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]map[*client]bool
	store   *room.Store
}

func NewHub(store *room.Store) *Hub {
	return &Hub{
		viewers: make(map[string]map[*client]bool),
		store:   store,
	}
}

// Join registers conn as a viewer of roomCode and immediately queues a
// full snapshot, so a freshly connected viewer renders without waiting
// for the next change.
func (h *Hub) Join(roomCode string, conn *websocket.Conn) *client {
	c := newClient(conn, roomCode)

	h.mu.Lock()
	if h.viewers[roomCode] == nil {
		h.viewers[roomCode] = make(map[*client]bool)
	}
	h.viewers[roomCode][c] = true
	h.mu.Unlock()

	if sess, ok := h.store.Get(roomCode); ok {
		// Snapshots ride the default event so the envelope stays small.
		if data, err := envelope("", live.SyncPayload{Cart: &sess.Cart, Status: sess.Status}); err == nil {
			// A client too slow for even the first frame just misses it.
			c.trySend(data)
		}
	}

	return c
}

func (h *Hub) Remove(c *client) {
	h.mu.Lock()
	if set, ok := h.viewers[c.roomCode]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			c.close()
		}
		if len(set) == 0 {
			delete(h.viewers, c.roomCode)
		}
	}
	h.mu.Unlock()
}

// BroadcastSync pushes a full snapshot of the room's current state.
func (h *Hub) BroadcastSync(roomCode string) {
	sess, ok := h.store.Get(roomCode)
	if !ok {
		return
	}
	h.broadcast(roomCode, "", live.SyncPayload{Cart: &sess.Cart, Status: sess.Status})
}

// BroadcastCart pushes the aggregated cart form, totals included, so
// viewers can adopt it without recomputing.
func (h *Hub) BroadcastCart(roomCode string, snap cart.Snapshot) {
	h.broadcast(roomCode, live.EventCartUpdated, snap)
}

func (h *Hub) BroadcastStatus(roomCode, status string) {
	h.broadcast(roomCode, live.EventSessionStatus, live.StatusPayload{Status: status})
}

func (h *Hub) BroadcastHighlight(roomCode string, batchID int64) {
	h.broadcast(roomCode, live.EventHighlighted, live.HighlightPayload{BatchID: batchID})
}

func (h *Hub) broadcast(roomCode, event string, payload any) {
	data, err := envelope(event, payload)
	if err != nil {
		log.Printf("hub: broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.viewers[roomCode]))
	for c := range h.viewers[roomCode] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			// Client can't keep up, disconnect it
			log.Printf("hub: viewer too slow in room %s, disconnecting", roomCode)
			h.Remove(c)
		}
	}
}

// ViewerCount returns the number of connected viewers of roomCode.
func (h *Hub) ViewerCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[roomCode])
}

// TotalViewers returns the number of connected viewers across all rooms.
func (h *Hub) TotalViewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.viewers {
		total += len(set)
	}
	return total
}

func envelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(live.Envelope{Event: event, Data: data})
}
