package websocket

import (
	"sync"
	"time"

	"brainquest/internal/logger"
	"brainquest/models"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ProgressClient is one websocket connection subscribed to its user's events
type ProgressClient struct {
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
}

// SafeWriteJSON serializes writes; gorilla connections allow one writer at a time.
func (pc *ProgressClient) SafeWriteJSON(v interface{}) error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	_ = pc.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return pc.Conn.WriteJSON(v)
}

// Hub fans gamification events out to the connections of the affected user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*ProgressClient]struct{}
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*ProgressClient]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *ProgressClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.UserID]
	if !ok {
		set = make(map[*ProgressClient]struct{})
		h.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	h.log.Debug("progress client registered", "userId", client.UserID, "connections", len(set))
}

// Unregister removes the client and closes its connection. Safe to call twice.
func (h *Hub) Unregister(client *ProgressClient) {
	h.mu.Lock()
	set, ok := h.clients[client.UserID]
	if ok {
		if _, present := set[client]; !present {
			ok = false
		}
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.mu.Unlock()
	if ok {
		client.Conn.Close()
		h.log.Debug("progress client unregistered", "userId", client.UserID)
	}
}

// Publish delivers the event to every connection of event.UserID. Clients
// that fail a write are dropped.
func (h *Hub) Publish(event models.GamificationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	targets := make([]*ProgressClient, 0, len(h.clients[event.UserID]))
	for client := range h.clients[event.UserID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.SafeWriteJSON(event); err != nil {
			h.log.Warn("dropping progress client", "userId", client.UserID, "error", err)
			h.Unregister(client)
		}
	}
}

// Connections returns the number of open connections of userID
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
