package room

import (
	"errors"
	"sync"
	"time"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

// Store is the in-memory registry of live sessions, keyed by room code.
// All reads return clones so callers can never mutate shared state.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Session
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Session),
	}
}

func (s *Store) Create(roomCode, title, hostName string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomCode]; ok {
		return nil, ErrExists
	}
	now := time.Now()
	sess := &Session{
		RoomCode:  roomCode,
		Title:     title,
		HostName:  hostName,
		Status:    StatusActive,
		Cart:      cart.FromItems(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rooms[roomCode] = sess
	return sess.Clone(), nil
}

func (s *Store) Get(roomCode string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.rooms[roomCode]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// SetStatus replaces the session status.
func (s *Store) SetStatus(roomCode, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rooms[roomCode]
	if !ok {
		return ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = time.Now()
	return nil
}

// SetCart replaces the cart wholesale, re-applying the room's current
// highlight onto the new items.
func (s *Store) SetCart(roomCode string, snap cart.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rooms[roomCode]
	if !ok {
		return ErrNotFound
	}
	if sess.HighlightedBatchID != nil {
		snap = snap.Highlighted(*sess.HighlightedBatchID)
	}
	sess.Cart = snap.Clone()
	sess.UpdatedAt = time.Now()
	return nil
}

// SetHighlight marks batchID as the highlighted batch and reprojects the
// per-item flags.
func (s *Store) SetHighlight(roomCode string, batchID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rooms[roomCode]
	if !ok {
		return ErrNotFound
	}
	id := batchID
	sess.HighlightedBatchID = &id
	sess.Cart = sess.Cart.Highlighted(batchID)
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Remove(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomCode)
}

// Codes returns the codes of all rooms, in no particular order.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes
}

// ActiveCount returns the number of rooms that have not ended.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sess := range s.rooms {
		if sess.Status != StatusEnded {
			count++
		}
	}
	return count
}
