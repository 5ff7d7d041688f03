package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type handleEntry struct {
	roomCode  string
	expiresAt time.Time
}

// HandleRegistry tracks channel handles issued by the exchange endpoint.
// A handle is opaque, scoped to one room, redeemable exactly once, and
// expires after the configured TTL. Expired entries are swept lazily on
// each Issue so the map stays bounded without a janitor goroutine.
type HandleRegistry struct {
	mu      sync.Mutex
	handles map[string]handleEntry
	ttl     time.Duration
	now     func() time.Time // test seam
}

func NewHandleRegistry(ttl time.Duration) *HandleRegistry {
	return &HandleRegistry{
		handles: make(map[string]handleEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue creates a fresh handle for roomCode. Every call returns a new
// independent handle; issuing never invalidates earlier ones.
func (r *HandleRegistry) Issue(roomCode string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for h, e := range r.handles {
		if now.After(e.expiresAt) {
			delete(r.handles, h)
		}
	}

	handle := uuid.NewString()
	r.handles[handle] = handleEntry{
		roomCode:  roomCode,
		expiresAt: now.Add(r.ttl),
	}
	return handle
}

// Redeem consumes the handle. It succeeds at most once per handle, and
// only for the room the handle was issued for, within its TTL. The
// handle is removed regardless of the outcome.
func (r *HandleRegistry) Redeem(handle, roomCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.handles[handle]
	if !ok {
		return false
	}
	delete(r.handles, handle)

	if r.now().After(e.expiresAt) {
		return false
	}
	return e.roomCode == roomCode
}

// Pending returns the number of unredeemed handles, expired or not.
func (r *HandleRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
