package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultSendBufferSize    = 256
)

// connectionAck is the first message every subscriber receives.
type connectionAck struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// batchEnvelope wraps a broadcast batch on the wire. Every kind key is
// present, with an empty array when nothing of that kind was decoded.
type batchEnvelope struct {
	Timestamp string       `json:"timestamp"`
	Events    *event.Batch `json:"events"`
}

// HubConfig holds configuration for the broadcast hub.
type HubConfig struct {
	// HeartbeatInterval is the ping cadence; clients that miss one full
	// interval are reclaimed. Defaults to 30s.
	HeartbeatInterval time.Duration

	// SendBufferSize is the per-client outgoing message buffer.
	SendBufferSize int

	// Logger for connection events.
	Logger *slog.Logger
}

// Hub owns the live subscriber registry and pushes batches to every open
// client. It is constructed and started explicitly by the host process; its
// lifecycle is Start, then Shutdown, never a hidden global.
type Hub struct {
	cfg    HubConfig
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	done chan struct{}
	wg   sync.WaitGroup

	// Metrics, guarded by mu.
	totalConnections int64
	broadcasts       int64
	messagesQueued   int64
	messagesDropped  int64
}

// NewHub creates a broadcast hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Hub{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "ws-hub"),
		clients: make(map[string]*Client),
		done:    make(chan struct{}),
	}
}

// Start launches the heartbeat loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.heartbeatLoop()
}

// Shutdown stops the heartbeat and closes every subscriber connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	close(h.done)

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.detach() // registry already cleared
		c.Close()
	}

	stopped := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register wraps an upgraded connection in a Client, adds it to the
// registry, sends the connection ack, and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	id := uuid.NewString()
	client := newClient(id, conn, h.cfg.SendBufferSize, 2*h.cfg.HeartbeatInterval, h.unregister, h.logger)

	h.mu.Lock()
	h.clients[id] = client
	h.totalConnections++
	h.mu.Unlock()

	ack, _ := json.Marshal(connectionAck{Type: "connection", Status: "connected"})
	client.enqueue(ack)
	client.run()

	h.logger.Info("client connected",
		"client_id", id,
		"remote_addr", conn.RemoteAddr().String(),
	)

	return client
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		h.logger.Info("client disconnected", "client_id", id)
	}
}

// Broadcast serializes the batch once and queues it to every open client.
// Dead or lagging subscribers are skipped; nothing here can fail the batch.
func (h *Hub) Broadcast(batch *event.Batch) {
	h.mu.RLock()
	count := len(h.clients)
	h.mu.RUnlock()
	if count == 0 {
		return
	}

	payload, err := json.Marshal(batchEnvelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Events:    batch,
	})
	if err != nil {
		h.logger.Error("failed to marshal batch", "error", err)
		return
	}

	var queued, dropped int64
	h.mu.RLock()
	for _, c := range h.clients {
		if c.IsClosed() {
			continue
		}
		if c.enqueue(payload) {
			queued++
		} else {
			dropped++
		}
	}
	h.mu.RUnlock()

	h.mu.Lock()
	h.broadcasts++
	h.messagesQueued += queued
	h.messagesDropped += dropped
	h.mu.Unlock()

	h.logger.Debug("broadcast batch",
		"events", batch.Total(),
		"clients", queued,
		"dropped", dropped,
	)
}

// ClientCount returns the number of registered subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// heartbeatLoop pings every subscriber on a fixed interval and reclaims the
// ones that never answered the previous ping.
func (h *Hub) heartbeatLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				if !c.Alive() {
					h.logger.Info("client failed heartbeat check, terminating connection",
						"client_id", c.ID(),
					)
					c.Close()
					continue
				}
				if err := c.ping(); err != nil {
					h.logger.Debug("ping failed", "client_id", c.ID(), "error", err)
					c.Close()
				}
			}
		}
	}
}

// Stats returns hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HubStats{
		ActiveConnections: int64(len(h.clients)),
		TotalConnections:  h.totalConnections,
		Broadcasts:        h.broadcasts,
		MessagesQueued:    h.messagesQueued,
		MessagesDropped:   h.messagesDropped,
	}
}

// HubStats contains hub counters.
type HubStats struct {
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	Broadcasts        int64 `json:"broadcasts"`
	MessagesQueued    int64 `json:"messages_queued"`
	MessagesDropped   int64 `json:"messages_dropped"`
}
