package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/flippo/internal/api/response"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
)

// Hub fans lobby state out to the clients subscribed to one lobby. Frames
// are queued on each client synchronously so a connection sees them in the
// order the game emitted them.
type Hub struct {
	lobbyID model.LobbyID
	clients map[*Client]bool
	closed  bool
	mu      sync.RWMutex
	logger  *slog.Logger
}

// Ensure Hub implements game.Broadcaster
var _ game.Broadcaster = (*Hub)(nil)

// NewHub creates a new Hub for a lobby
func NewHub(lobbyID model.LobbyID, logger *slog.Logger) *Hub {
	return &Hub{
		lobbyID: lobbyID,
		clients: make(map[*Client]bool),
		logger:  logger.With(slog.String("lobby", string(lobbyID))),
	}
}

// Register subscribes a client to the lobby
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client subscribed", slog.Int("total_clients", clientCount))
}

// Unregister removes a client from the lobby
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client unsubscribed",
		slog.String("player_id", string(client.PlayerID())),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Broadcast queues a frame for every subscribed client without blocking
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	droppedCount := 0
	for client := range h.clients {
		if !client.enqueue(message) {
			droppedCount++
		}
	}
	sentCount := len(h.clients) - droppedCount
	h.mu.RUnlock()
	if droppedCount > 0 {
		h.logger.Warn("ws broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

// BroadcastLobbyState sends the public lobby view to every subscriber
func (h *Hub) BroadcastLobbyState(state model.LobbySnapshot) {
	msg, err := Encode(EventLobbyState, response.LobbyFromModel(state))
	if err != nil {
		h.logger.Error("failed to encode lobby state", slog.String("error", err.Error()))
		return
	}
	h.Broadcast(msg)
}

// Close drops every subscriber and stops accepting new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clientCount := len(h.clients)
	clear(h.clients)
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager manages hubs for all lobbies
type HubManager struct {
	hubs   map[model.LobbyID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.LobbyID]*Hub),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// GetOrCreateHub returns the hub for a lobby, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(lobbyID model.LobbyID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[lobbyID]; ok {
		return hub
	}

	hub := NewHub(lobbyID, m.logger)
	m.hubs[lobbyID] = hub
	return hub
}

// ForLobby returns the lobby's hub as a game broadcaster
func (m *HubManager) ForLobby(id model.LobbyID) game.Broadcaster {
	return m.GetOrCreateHub(id)
}

// GetHub returns the hub for a lobby, or nil if it doesn't exist
func (m *HubManager) GetHub(lobbyID model.LobbyID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[lobbyID]
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
