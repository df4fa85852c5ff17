package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Entities and actions carried by sync messages.
const (
	EntityList    = "list"
	EntityItem    = "item"
	EntityHistory = "history"
	EntityProduct = "product"

	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionToggled   = "toggled"
	ActionCompleted = "completed"
)

// Message is a change notification pushed to every open shop-mode screen.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage builds a Message whose Type is "<entity>_<action>". A non-zero
// listID is attached as extra.list_id so item events can be routed client side.
func NewMessage(entity, action string, id, listID int64) Message {
	msg := Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
	if listID != 0 {
		msg.Extra = map[string]any{"list_id": listID}
	}
	return msg
}

// ListID returns extra.list_id, or 0 when the message has none.
func (m Message) ListID() int64 {
	switch v := m.Extra["list_id"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	dropped atomic.Int64
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "clients", n)
}

// Broadcast queues msg for every client subscribed to it. Clients whose
// buffer is full miss the message; they resync on their next fetch.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because a client was slow.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
