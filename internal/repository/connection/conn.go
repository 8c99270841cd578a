package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// DefaultSendBuffer is how many frames may wait for a slow reader before
	// the connection is dropped.
	DefaultSendBuffer = 256
)

type Option func(*Conn)

func WithSendBuffer(size int) Option {
	return func(c *Conn) {
		if size > 0 {
			c.send = make(chan []byte, size)
		}
	}
}

// Conn is a websocket subscribed to one room on behalf of one user.
// Fan-out goes through Send, which only queues; WritePump owns the socket's
// writes. gorilla/websocket allows a single concurrent writer, so direct
// writes also take mu.
type Conn struct {
	ws        *websocket.Conn
	RoomID    string
	UserID    string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

func New(ws *websocket.Conn, roomID, userID string, opts ...Option) *Conn {
	c := &Conn{
		ws:     ws,
		RoomID: roomID,
		UserID: userID,
		send:   make(chan []byte, DefaultSendBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Conn) WS() *websocket.Conn {
	return c.ws
}

// Send queues v for WritePump. It never blocks: a closed connection returns
// ErrClosed and a full queue returns ErrSendBufferFull.
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// WritePump writes queued frames and pings the peer every pingPeriod. It
// returns nil when ctx is done or the connection is closed, and the write
// error otherwise.
func (c *Conn) WritePump(ctx context.Context, pingPeriod time.Duration) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return err
			}
		}
	}
}

func (c *Conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// WriteJSON writes v right away, bypassing the queue. It is meant for
// replies on the connection's own read loop.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.ws.WriteJSON(v)
}

// Ping and Close use WriteControl, which gorilla/websocket allows
// concurrently with other writes.
func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Abort drops the socket without a close handshake. It does not wait on
// writes, so a fan-out can call it on a stalled peer.
func (c *Conn) Abort() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.ws.Close()
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return c.ws.Close()
}
