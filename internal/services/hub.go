package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Wire message types pushed to live connections.
const (
	MsgUpdateData   = "UPDATE_DATA"
	MsgNotification = "NOTIFICATION"
)

// Envelope is the structured record written to a connection. UPDATE_DATA
// carries no payload; NOTIFICATION carries a human-readable message.
type Envelope struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Client is one live authenticated connection. ServiceClient marks
// background/service connections which never receive notifications.
type Client struct {
	ID            string
	UserID        uint
	Name          string
	ServiceClient bool

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// Send marshals the envelope and queues it without blocking. Returns false
// if the connection is gone or the client's buffer is full and the message
// was dropped.
func (c *Client) Send(env Envelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		// Slow client, drop the message
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Outbox exposes the client's outbound queue for the write pump. Messages
// are consumed in FIFO order, which preserves per-connection ordering.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// Hub is the process-wide registry of live connections, keyed by
// connection id. Connections open and close independently of requests.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	sendBuffer int
}

// NewHub creates a hub. sendBuffer is the per-connection outbound queue size.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		clients:    make(map[string]*Client),
		sendBuffer: sendBuffer,
	}
}

// Register adds a new live connection and returns its client handle.
func (h *Hub) Register(userID uint, name string, serviceClient bool) *Client {
	client := &Client{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          name,
		ServiceClient: serviceClient,
		send:          make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	return client
}

// Unregister removes a connection and closes its outbound queue.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[id]; ok {
		client.close()
		delete(h.clients, id)
	}
}

// Clients returns a snapshot of the currently-live connections. A client
// that disconnects after the snapshot simply drops its pending sends.
func (h *Hub) Clients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LiveUserIDs returns the set of user ids with at least one live,
// non-service connection.
func (h *Hub) LiveUserIDs() map[uint]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	live := make(map[uint]bool)
	for _, c := range h.clients {
		if !c.ServiceClient {
			live[c.UserID] = true
		}
	}
	return live
}
