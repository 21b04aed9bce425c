package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/flippo/internal/api/apierr"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
)

const disconnectTimeout = 5 * time.Second

// Lobbies is the lobby registry the handler routes connections through
type Lobbies interface {
	Get(id model.LobbyID) (*game.Game, error)
	Connect(ctx context.Context, lobbyID model.LobbyID, token string, conn game.Conn) (model.PlayerID, error)
	Disconnect(ctx context.Context, lobbyID model.LobbyID, playerID model.PlayerID, token string, conn game.Conn)
	Process(lobbyID model.LobbyID, playerID model.PlayerID, msg model.Message) error
}

// TokenIssuer hands out reconnection tokens to new browsers
type TokenIssuer interface {
	IssueToken() string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Handler upgrades lobby connections and attaches them to seats
type Handler struct {
	lobbies Lobbies
	tokens  TokenIssuer
	hubs    *HubManager
	logger  *slog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(lobbies Lobbies, tokens TokenIssuer, hubs *HubManager, logger *slog.Logger) *Handler {
	return &Handler{
		lobbies: lobbies,
		tokens:  tokens,
		hubs:    hubs,
		logger:  logger.With(slog.String("component", "ws-handler")),
	}
}

// ServeHTTP handles GET /api/ws?lobby=<id>&iam=<token>
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lobbyID := model.LobbyID(r.URL.Query().Get("lobby"))
	if _, err := h.lobbies.Get(lobbyID); err != nil {
		apierr.WriteError(w, err)
		return
	}

	token := r.URL.Query().Get("iam")
	if token == "" {
		token = h.tokens.IssueToken()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	logger := h.logger.With(slog.String("lobby", string(lobbyID)))
	client := NewClient(conn, logger)
	go client.writePump()

	client.sendEvent(EventIAm, token)

	hub := h.hubs.GetOrCreateHub(lobbyID)
	hub.Register(client)
	defer hub.Unregister(client)

	playerID, err := h.lobbies.Connect(r.Context(), lobbyID, token, client)
	switch {
	case errors.Is(err, model.ErrGameAlreadyStarted):
		logger.Info("connection rejected, game already started")
		client.Close(game.CloseCodeGameStarted, game.CloseReasonGameStarted)
	case err != nil:
		logger.Error("failed to attach connection", slog.String("error", err.Error()))
		client.Close(websocket.CloseInternalServerErr, "")
	default:
		client.setPlayerID(playerID)
		logger = logger.With(slog.String("player_id", string(playerID)))
	}

	client.readPump(func(data []byte) {
		if playerID == "" {
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			logger.Debug("dropping client message", slog.String("error", err.Error()))
			return
		}
		if err := h.lobbies.Process(lobbyID, playerID, msg); err != nil {
			logger.Debug("message not processed", slog.String("error", err.Error()))
		}
	})

	client.Close(websocket.CloseNormalClosure, "")
	if playerID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		h.lobbies.Disconnect(ctx, lobbyID, playerID, token, client)
	}
}
