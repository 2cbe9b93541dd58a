package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the transport a Client writes to. *websocket.Conn satisfies it;
// tests inject fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live connection bound to one authenticated user for its
// whole lifetime.
type Client struct {
	ID          string
	UserID      int64
	ConnectedAt time.Time

	// gorilla/websocket allows at most one concurrent writer per connection.
	mu   sync.Mutex
	conn Conn
}

func NewClient(userID int64, conn Conn) *Client {
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// Send writes the event to the connection wrapped in the wire envelope.
func (c *Client) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(envelope{Type: ev.eventType(), Payload: ev})
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub is the in-memory registry of live connections keyed by user id. A user
// may hold many connections at once (tabs, devices). State is process-local
// and rebuilt from scratch on restart; presence is only as accurate as this
// process's live sockets.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

// Add registers a client under its user id.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
}

// Remove unregisters a client. The user's set is dropped entirely when it
// becomes empty so offline users leave no entry behind.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// CountFor returns the number of live connections for the user.
func (h *Hub) CountFor(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// TotalCount returns the number of live connections across all users.
func (h *Hub) TotalCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}

// clientsFor snapshots the user's connections so sends happen outside the
// lock; open/close events may race with dispatch.
func (h *Hub) clientsFor(userID int64) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.clients[userID]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
