package handler

import (
	"net/http"

	"github.com/mcoot/flippo/internal/api/response"
)

// LobbyCounter reports how many lobbies are live
type LobbyCounter interface {
	Count() int
}

// HealthHandler handles GET /api/health
type HealthHandler struct {
	lobbies LobbyCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(lobbies LobbyCounter) *HealthHandler {
	return &HealthHandler{lobbies: lobbies}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:  "ok",
		Lobbies: h.lobbies.Count(),
	})
}
