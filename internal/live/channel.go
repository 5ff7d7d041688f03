package live

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Channel is one established push connection. Events yields raw envelope
// payloads in delivery order and is closed when the connection dies;
// Err reports why. No client-to-server traffic flows on a channel.
type Channel interface {
	Events() <-chan []byte
	Err() error
	Close() error
}

// Dialer opens an event channel for a room using a previously exchanged
// handle. The supervisor depends on this interface so tests can drive it
// without a network.
type Dialer interface {
	Dial(ctx context.Context, roomCode, handle string) (Channel, error)
}

// WebsocketDialer opens channels against the live server. The handle
// rides as a query parameter; the session token is never part of this
// request.
type WebsocketDialer struct {
	BaseURL string // e.g. "ws://127.0.0.1:8080"
}

func (d *WebsocketDialer) Dial(ctx context.Context, roomCode, handle string) (Channel, error) {
	u := fmt.Sprintf("%s/ws/live/%s?session=%s",
		d.BaseURL, url.PathEscape(roomCode), url.QueryEscape(handle))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial channel: %w", err)
	}

	ch := &wsChannel{
		conn:   conn,
		events: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go ch.readLoop()
	go ch.pingLoop()
	return ch, nil
}

type wsChannel struct {
	conn   *websocket.Conn
	events chan []byte
	done   chan struct{}

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

func (c *wsChannel) Events() <-chan []byte { return c.events }

func (c *wsChannel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

// readLoop pumps raw messages into the events channel until the
// connection errors. A read deadline refreshed by pongs detects silently
// stalled peers at the transport level.
func (c *wsChannel) readLoop() {
	defer close(c.events)

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			c.conn.Close()
			return
		}
		select {
		case c.events <- data:
		case <-c.done:
			return
		}
	}
}

func (c *wsChannel) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
