package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/flippo/internal/api/response"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
)

// Lobbies is the registry the lobby endpoints read from
type Lobbies interface {
	GetOrCreate(ctx context.Context, id model.LobbyID) (*game.Game, error)
	Get(id model.LobbyID) (*game.Game, error)
	History(ctx context.Context, id model.LobbyID) ([]model.GameSummary, error)
}

// LobbyHandler handles lobby-related endpoints
type LobbyHandler struct {
	lobbies Lobbies
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbies Lobbies) *LobbyHandler {
	return &LobbyHandler{lobbies: lobbies}
}

// GetOrCreate handles GET /api/lobby?id=<id>
func (h *LobbyHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	id := model.LobbyID(r.URL.Query().Get("id"))

	g, err := h.lobbies.GetOrCreate(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyFromModel(g.Snapshot()))
}

// Get handles GET /api/lobbies/{id}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.LobbyID(mux.Vars(r)["id"])

	g, err := h.lobbies.Get(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyFromModel(g.Snapshot()))
}

// History handles GET /api/lobbies/{id}/history
func (h *LobbyHandler) History(w http.ResponseWriter, r *http.Request) {
	id := model.LobbyID(mux.Vars(r)["id"])

	summaries, err := h.lobbies.History(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyHistoryFromModel(id, summaries))
}
