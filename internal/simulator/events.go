package simulator

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/logging"
)

const writeWait = 2 * time.Second

// Event is one simulated hardware action.
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Status int       `json:"status"`
	Time   time.Time `json:"time"`
}

// Event types.
const (
	EventDispense  = "dispense"
	EventDoorOpen  = "door_open"
	EventDoorClose = "door_close"
	EventFault     = "fault"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// client is one websocket subscriber. Writes are serialized per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub keeps track of connected event subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Register adds a connection and returns its id.
func (h *Hub) Register(conn *websocket.Conn) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = &client{conn: conn}
	h.mu.Unlock()
	return id
}

// Unregister closes and removes a connection.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish stamps ev with an id and time and sends it to every subscriber.
// Subscribers that cannot be written to are dropped.
func (h *Hub) Publish(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Failed to encode event", zap.Error(err))
		return ev
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(payload); err != nil {
			logging.Debug("Dropping event subscriber", zap.String("id", id), zap.Error(err))
			h.Unregister(id)
		}
	}
	return ev
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until it leaves.
// Incoming messages are read and discarded so close frames are noticed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	id := h.Register(conn)
	logging.Info("Event subscriber connected",
		zap.String("id", id),
		zap.String("remote_addr", r.RemoteAddr),
	)
	defer func() {
		h.Unregister(id)
		logging.Info("Event subscriber disconnected", zap.String("id", id))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Event subscriber read error", zap.String("id", id), zap.Error(err))
			}
			return
		}
	}
}
