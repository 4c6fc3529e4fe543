package notifications

import (
	"context"
	"errors"
	"sync"

	"foros/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	defaultMaxConnsPerTopic = 64
	defaultMaxTotalConns    = 10000
)

var (
	ErrHubClosed       = errors.New("hub is shutting down")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrTopicConnLimit  = errors.New("connection limit reached for this topic")
)

// Hub fans messages out to the websocket clients subscribed to a numeric topic.
// The user hub keys by user ID, the vote hub by hilo ID.
type Hub struct {
	name             string
	maxConnsPerTopic int
	maxTotalConns    int

	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

func newHub(name string, perTopic int) *Hub {
	return &Hub{
		name:             name,
		maxConnsPerTopic: perTopic,
		maxTotalConns:    defaultMaxTotalConns,
		conns:            make(map[uint]map[*Client]struct{}),
	}
}

// NewUserHub keys clients by the authenticated user receiving notifications.
func NewUserHub() *Hub {
	return newHub("notification hub", 12)
}

// NewVoteHub keys clients by the hilo whose vote count they watch.
func NewVoteHub() *Hub {
	return newHub("vote hub", defaultMaxConnsPerTopic)
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return h.name }

// Register adds a connection under topic. userID may be zero.
func (h *Hub) Register(topic, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= h.maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[topic]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[topic] = m
	}
	if len(m) >= h.maxConnsPerTopic {
		return nil, ErrTopicConnLimit
	}

	client := NewClient(h, conn, topic, userID)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes a client; unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.Topic]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		middleware.ActiveWebSockets.Dec()
		close(client.Send)
	}
	if len(m) == 0 {
		delete(h.conns, client.Topic)
	}
}

// Broadcast sends message to every client subscribed to topic.
func (h *Hub) Broadcast(topic uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.conns[topic]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
}

// Count reports the clients currently subscribed to topic.
func (h *Hub) Count(topic uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[topic])
}

// Total reports every client registered with the hub.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Shutdown sends a going-away close frame to every client and empties the hub.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for topic, clients := range h.conns {
		for client := range clients {
			if client.Conn != nil {
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					middleware.Logger.Warn("failed to write close message",
						"hub", h.name, "topic", topic, "error", err)
				}
				_ = client.Conn.Close()
			}
			close(client.Send)
			middleware.ActiveWebSockets.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
