// Package wshub provides a WebSocket broadcast hub for pushing events to subscribers.
package wshub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
)

// Config holds hub configuration.
type Config struct {
	// WriteTimeout bounds each outbound write.
	WriteTimeout time.Duration
	// SendBuffer is the per-client queue size. Messages to a client whose
	// queue is full are dropped rather than blocking the broadcaster.
	SendBuffer int
	// PingInterval for keepalive pings. 0 disables pings.
	PingInterval time.Duration
	// AllowedOrigins restricts browser connections. Empty allows same-origin only.
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 5 * time.Second,
		SendBuffer:   32,
		PingInterval: 30 * time.Second,
	}
}

// Hub fans out messages to all connected WebSocket clients.
type Hub struct {
	config Config
	logger logger.LoggerInterface

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a hub with the given config.
func New(config Config, log logger.LoggerInterface) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Hub{
		config:  config,
		logger:  log,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.config.AllowedOrigins,
	})
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed",
			"error", apperror.Wrap(err, apperror.CodeWebSocketConnectionError, r.RemoteAddr))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	if !h.register(c) {
		conn.Close(websocket.StatusGoingAway, "hub closed")
		return
	}

	go h.writeLoop(c)
	h.readLoop(r.Context(), c)
}

// Broadcast queues payload for every connected client and returns the number
// of clients it was queued for. Slow clients miss messages instead of
// blocking the caller.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0
	}

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- payload:
			sent++
		default:
			// Queue full, drop for this client.
		}
	}
	return sent
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new connections.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		c.conn.Close(websocket.StatusGoingAway, "shutting down")
	}
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// writeLoop drains the client's send queue onto the connection.
func (h *Hub) writeLoop(c *client) {
	var ping *time.Ticker
	var pingC <-chan time.Time
	if h.config.PingInterval > 0 {
		ping = time.NewTicker(h.config.PingInterval)
		pingC = ping.C
		defer ping.Stop()
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), h.config.WriteTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.unregister(c)
				return
			}
		case <-pingC:
			ctx, cancel := context.WithTimeout(context.Background(), h.config.WriteTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop discards inbound frames and unregisters on close. The hub is
// push-only; reading keeps control frames flowing.
func (h *Hub) readLoop(ctx context.Context, c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}
