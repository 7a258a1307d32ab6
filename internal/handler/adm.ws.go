package handler

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 16

type WSResponse struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// WSClient is one authenticated admin connection. Writes go through a
// buffered send channel drained by writePump; a full buffer drops the
// frame for this client only, so one slow consumer never stalls the
// broadcast loop. The closed flag is checked under mu on every enqueue
// because broadcasts run concurrently with disconnects: a sender racing
// Unregister must see a dropped frame, never a closed channel.
type WSClient struct {
	Admin domain.AdminIdentity

	conn   *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *WSClient) SendMessage(msgType string, data interface{}) {
	msg := WSResponse{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal ws message",
			zap.String("type", msgType),
			zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("ws send buffer full, dropping frame",
			zap.String("admin", c.Admin.Username),
			zap.String("type", msgType))
	}
}

func (c *WSClient) SendError(message string) {
	c.SendMessage("error", map[string]string{"message": message})
}

func (c *WSClient) writePump() {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.logger.Warn("ws write failed",
				zap.String("admin", c.Admin.Username),
				zap.Error(err))
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub is the live-connection registry. It is constructed once in the
// server and injected into both the ws handler (register/unregister)
// and the broadcaster (snapshot fan-out); there is no package-global
// connection state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewHub(m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*WSClient]struct{}),
		metrics: m,
		logger:  logger,
	}
}

func (h *Hub) Register(admin domain.AdminIdentity, conn *websocket.Conn) *WSClient {
	client := &WSClient{
		Admin:  admin,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: h.logger,
	}
	go client.writePump()

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ConnectedClients.Inc()
	}
	h.logger.Info("admin connected",
		zap.String("admin", admin.Username),
		zap.String("role", admin.Role))
	return client
}

func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.close()
	if h.metrics != nil {
		h.metrics.ConnectedClients.Dec()
	}
	h.logger.Info("admin disconnected", zap.String("admin", client.Admin.Username))
}

// Clients returns a snapshot of the currently connected clients.
func (h *Hub) Clients() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
