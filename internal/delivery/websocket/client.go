// Package websocket provides the WebSocket fan-out sink: a hub owning the
// live subscriber registry and per-connection clients with a heartbeat
// protocol that reclaims half-open connections.
package websocket

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer. Clients only send control
	// traffic; anything larger is a misbehaving peer.
	maxMessageSize = 4 * 1024
)

// Client is one live subscriber connection. It is created by the hub on
// upgrade and destroyed on disconnect or failed heartbeat.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	onClose func(id string)
	logger  *slog.Logger

	// alive is flipped false before each ping and back true by the pong
	// handler; a client still false at the next tick is reclaimed.
	alive atomic.Bool

	// pongWait bounds how long reads may go without a pong.
	pongWait time.Duration

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, sendBuffer int, pongWait time.Duration, onClose func(id string), logger *slog.Logger) *Client {
	c := &Client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		onClose:  onClose,
		logger:   logger,
		pongWait: pongWait,
	}
	c.alive.Store(true)
	return c
}

// ID returns the unique identifier for this connection.
func (c *Client) ID() string {
	return c.id
}

// Alive reports whether the client answered the last heartbeat.
func (c *Client) Alive() bool {
	return c.alive.Load()
}

// enqueue offers a message to the client without blocking. A full buffer
// drops the message; a slow consumer lags rather than stalling the hub.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ping sends a transport-level ping and marks the client pending until the
// pong handler flips it back.
func (c *Client) ping() error {
	c.alive.Store(false)
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close tears the connection down once; safe to call from any goroutine.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onClose := c.onClose
	c.mu.Unlock()

	close(c.done)
	err := c.conn.Close()

	if onClose != nil {
		onClose(c.id)
	}
	return err
}

// detach drops the close callback; used when the registry is already gone.
func (c *Client) detach() {
	c.mu.Lock()
	c.onClose = nil
	c.mu.Unlock()
}

// IsClosed reports whether Close has run.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// run starts the read and write pumps. Called by the hub after registration.
func (c *Client) run() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes the connection. Subscribers don't speak an application
// protocol; reads exist to service control frames and detect closure.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.alive.Store(true)
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("client read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

// writePump drains the send buffer onto the wire.
func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("client write error", "client_id", c.id, "error", err)
				return
			}
		}
	}
}
