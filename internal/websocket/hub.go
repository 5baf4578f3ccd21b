package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// Hub maintains the set of active WebSocket clients and broadcasts domain
// events to them. Clients connect scoped to a family and only receive that
// family's events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a domain event to every client of the owning family.
func (h *Hub) Broadcast(evt model.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("marshal event", "event_id", evt.ID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.familyID != evt.FamilyID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full; drop rather than block the hub
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
