package live

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
)

// Status is the lifecycle state of a viewer connection, independent of
// the session data flowing over it.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Snapshot is the externally visible state of a supervised connection.
type Snapshot struct {
	ConnectionStatus   Status
	Cart               *cart.Snapshot
	SessionStatus      string
	HighlightedBatchID *int64
}

// Config wires a Supervisor to its collaborators. Zero retry delays fall
// back to the defaults (5s after an exchange or connect failure, 3s
// after a post-connect channel error).
type Config struct {
	RoomCode string
	Token    string

	Exchanger Exchanger
	Dialer    Dialer

	ExchangeRetryDelay time.Duration
	ChannelRetryDelay  time.Duration
}

// Supervisor drives one viewer connection from DISCONNECTED through
// CONNECTING to CONNECTED, with ERROR reachable from CONNECTING or
// CONNECTED and a scheduled retry as the only way out of ERROR. Every
// retry restarts at the credential exchange; handles are single-use, so
// a stale one is never re-presented.
//
// A Supervisor owns at most one channel and one retry timer at a time.
// Nothing escapes to the caller as a panic or error: all failure is
// observable only as StatusError in the published snapshots.
type Supervisor struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	status  Status
	state   State
	ch      Channel     // current channel, nil when none
	timer   *time.Timer // pending retry, nil when none
	started bool
	stopped bool

	updates chan Snapshot
}

func New(cfg Config) *Supervisor {
	if cfg.ExchangeRetryDelay <= 0 {
		cfg.ExchangeRetryDelay = 5 * time.Second
	}
	if cfg.ChannelRetryDelay <= 0 {
		cfg.ChannelRetryDelay = 3 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusDisconnected,
		updates: make(chan Snapshot, 8),
	}
}

// Start begins connecting. It is a no-op after the first call and after
// Stop.
func (s *Supervisor) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run()
}

// Stop disposes the supervisor: it cancels any pending retry, closes any
// open channel, and silences in-flight work. No snapshot is published
// after Stop returns, and a credential exchange still in flight has its
// result discarded when it resolves.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	ch := s.ch
	s.ch = nil
	t := s.timer
	s.timer = nil
	s.mu.Unlock()

	s.cancel()
	if t != nil {
		t.Stop()
	}
	if ch != nil {
		ch.Close()
	}
}

// Snapshot returns the current connection status and session state.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Updates yields a snapshot after every observable change. The channel
// coalesces: when the consumer lags, older snapshots are dropped in
// favor of the freshest one.
func (s *Supervisor) Updates() <-chan Snapshot {
	return s.updates
}

// SetCart installs a locally computed cart ahead of server confirmation.
// The next SYNC or CART_UPDATED from the server is authoritative and
// overwrites it.
func (s *Supervisor) SetCart(snap cart.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Cart = replacedCart(snap, s.state.HighlightedBatchID)
	s.publishLocked()
}

func (s *Supervisor) run() {
	for {
		if s.ctx.Err() != nil {
			return
		}
		s.transition(StatusConnecting)

		handle, err := s.cfg.Exchanger.Exchange(s.ctx, s.cfg.Token, s.cfg.RoomCode)
		if s.ctx.Err() != nil {
			// Disposed while the exchange was in flight; drop the result.
			return
		}
		if err != nil {
			log.Printf("live: exchange failed for room %s: %v (retry in %v)",
				s.cfg.RoomCode, err, s.cfg.ExchangeRetryDelay)
			s.transition(StatusError)
			if !s.wait(s.cfg.ExchangeRetryDelay) {
				return
			}
			continue
		}

		ch, err := s.cfg.Dialer.Dial(s.ctx, s.cfg.RoomCode, handle)
		if s.ctx.Err() != nil {
			if ch != nil {
				ch.Close()
			}
			return
		}
		if err != nil {
			log.Printf("live: channel open failed for room %s: %v (retry in %v)",
				s.cfg.RoomCode, err, s.cfg.ExchangeRetryDelay)
			s.transition(StatusError)
			if !s.wait(s.cfg.ExchangeRetryDelay) {
				return
			}
			continue
		}

		if !s.adopt(ch) {
			ch.Close()
			return
		}
		s.transition(StatusConnected)

		s.consume(ch)

		s.release(ch)
		ch.Close()
		if s.ctx.Err() != nil {
			return
		}
		log.Printf("live: channel lost for room %s: %v (retry in %v)",
			s.cfg.RoomCode, ch.Err(), s.cfg.ChannelRetryDelay)
		s.transition(StatusError)
		if !s.wait(s.cfg.ChannelRetryDelay) {
			return
		}
	}
}

// consume applies channel messages until the channel dies or the
// supervisor is disposed. A message that fails to decode is logged and
// skipped; it never interrupts the messages after it.
func (s *Supervisor) consume(ch Channel) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case raw, ok := <-ch.Events():
			if !ok {
				return
			}
			ev, err := Decode(raw)
			if err != nil {
				log.Printf("live: dropping malformed message for room %s: %v", s.cfg.RoomCode, err)
				continue
			}
			s.apply(ev)
		}
	}
}

// adopt records ch as the single owned channel. It fails when the
// supervisor was stopped between dial and adoption.
func (s *Supervisor) adopt(ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.ch = ch
	return true
}

func (s *Supervisor) release(ch Channel) {
	s.mu.Lock()
	if s.ch == ch {
		s.ch = nil
	}
	s.mu.Unlock()
}

// wait blocks for the retry delay, registering the timer so Stop can
// cancel it. Returns false when the supervisor was disposed instead.
func (s *Supervisor) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		t.Stop()
		return false
	}
	s.timer = t
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
	}()

	select {
	case <-s.ctx.Done():
		t.Stop()
		return false
	case <-t.C:
		return true
	}
}

func (s *Supervisor) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reconcile(s.state, ev)
	s.publishLocked()
}

func (s *Supervisor) transition(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	s.publishLocked()
}

func (s *Supervisor) snapshotLocked() Snapshot {
	state := s.state.Clone()
	return Snapshot{
		ConnectionStatus:   s.status,
		Cart:               state.Cart,
		SessionStatus:      state.SessionStatus,
		HighlightedBatchID: state.HighlightedBatchID,
	}
}

// publishLocked pushes the current snapshot, evicting the oldest queued
// one when the consumer lags. Caller must hold s.mu. Publishing stops
// permanently once the supervisor is disposed.
func (s *Supervisor) publishLocked() {
	if s.stopped {
		return
	}
	snap := s.snapshotLocked()
	for {
		select {
		case s.updates <- snap:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
