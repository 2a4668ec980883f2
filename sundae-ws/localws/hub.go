// Package localws serves WebSocket connections directly, standing in for API
// Gateway when running in console mode.
package localws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

type client struct {
	id    string
	ready chan struct{} // closed once the upgrade has finished or failed
	conn  *websocket.Conn
	mu    sync.Mutex // serializes writes
}

// wait blocks until the upgrade settles and reports whether the socket is usable.
func (c *client) wait(ctx context.Context) (bool, error) {
	select {
	case <-c.ready:
		return c.conn != nil, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Hub keeps the live connections and implements sundaews.Sender for them.
type Hub struct {
	lifecycle *sundaews.Lifecycle
	logger    zerolog.Logger
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates a hub that registers connections through lifecycle.
func NewHub(lifecycle *sundaews.Lifecycle, logger zerolog.Logger) *Hub {
	return &Hub{
		lifecycle: lifecycle,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP registers the subscription carried by the request, upgrades it and
// holds the connection until the peer goes away. The client is held as pending
// before the subscription is written, so a broadcast racing the handshake waits
// for the upgrade instead of evicting the new subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.NewV4()
	if err != nil {
		http.Error(w, "unable to allocate connection id", http.StatusInternalServerError)
		return
	}
	connID := id.String()
	ctx := context.WithoutCancel(req.Context())

	c := &client{id: connID, ready: make(chan struct{})}
	h.add(c)

	if _, err := h.lifecycle.Connect(ctx, connID, carrierFrom(req)); err != nil {
		h.remove(c)
		close(c.ready)

		var inputErr *sundaews.ClientInputError
		if errors.As(err, &inputErr) {
			http.Error(w, inputErr.Message, http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Str("connection_id", connID).Msg("failed to store subscription")
		http.Error(w, "Failed to put item: "+err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.remove(c)
		close(c.ready)
		h.logger.Warn().Err(err).Str("connection_id", connID).Msg("websocket upgrade failed")
		h.disconnect(ctx, connID)
		return
	}
	c.conn = conn
	close(c.ready)

	done := make(chan struct{})
	go h.ping(c, done)
	h.read(c)
	close(done)

	h.remove(c)
	_ = conn.Close()
	h.disconnect(ctx, connID)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

func (h *Hub) disconnect(ctx context.Context, connID string) {
	if err := h.lifecycle.Disconnect(ctx, connID); err != nil {
		h.logger.Error().Err(err).Str("connection_id", connID).Msg("failed to disconnect")
	}
}

func (h *Hub) read(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("websocket read error")
			}
			return
		}
	}
}

func (h *Hub) ping(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send posts payload to a connection held by this hub. A connection still
// being upgraded is waited for. Connections the hub no longer holds, whose
// upgrade failed, or that are closing, are reported as gone.
func (h *Hub) Send(ctx context.Context, connectionID string, payload []byte) sundaews.Outcome {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return sundaews.GoneOutcome()
	}

	usable, err := c.wait(ctx)
	if err != nil {
		return sundaews.FailedOutcome(err)
	}
	if !usable {
		return sundaews.GoneOutcome()
	}

	if err := c.write(websocket.TextMessage, payload); err != nil {
		if isClosed(err) {
			return sundaews.GoneOutcome()
		}
		return sundaews.FailedOutcome(err)
	}
	return sundaews.DeliveredOutcome()
}

// Connections returns the number of connections currently held, including
// ones still being upgraded.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func isClosed(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, net.ErrClosed)
}

func carrierFrom(req *http.Request) sundaews.Carrier {
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	query := make(map[string]string)
	for k, v := range req.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return sundaews.Carrier{Headers: headers, Query: query}
}
