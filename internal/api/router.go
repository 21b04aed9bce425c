package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/flippo/internal/api/handler"
	"github.com/mcoot/flippo/internal/api/middleware"
	basemiddleware "github.com/mcoot/flippo/internal/middleware"
	"github.com/mcoot/flippo/internal/services/lobby"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	LobbyController *lobby.Controller
	// WebSocket handles /api/ws upgrades
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController)
	healthHandler := handler.NewHealthHandler(cfg.LobbyController)

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(basemiddleware.Logging(cfg.Logger))

	api.HandleFunc("/lobby", lobbyHandler.GetOrCreate).Methods(http.MethodGet)
	api.HandleFunc("/lobbies/{id}", lobbyHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/lobbies/{id}/history", lobbyHandler.History).Methods(http.MethodGet)
	api.Handle("/health", healthHandler).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		api.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	// CORS wraps the whole router so preflights are answered before route matching
	return middleware.CORS(r)
}
