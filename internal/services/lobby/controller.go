package lobby

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/mcoot/flippo/internal/dependencies/random"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
	"github.com/mcoot/flippo/internal/services/identity"
	"github.com/mcoot/flippo/internal/storage"
)

const (
	// LobbyCodeLength is the length of generated lobby codes
	LobbyCodeLength = 6
	// LobbyCodeAlphabet is the characters used in lobby codes (avoid confusing chars)
	LobbyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// maxCodeAttempts bounds the search for an unused generated code
	maxCodeAttempts = 16

	recordTimeout = 5 * time.Second
)

var validLobbyID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var errCodeSpaceExhausted = errors.New("could not generate an unused lobby code")

// BroadcasterProvider returns the fan-out for one lobby's subscribers
type BroadcasterProvider interface {
	ForLobby(id model.LobbyID) game.Broadcaster
}

// Controller is the process-wide registry of live lobbies. It routes
// connections to seats and persists completed games.
type Controller struct {
	config       model.GameConfig
	deps         game.Dependencies
	identity     identity.ServiceInterface
	storage      storage.Storage
	random       random.Random
	broadcasters BroadcasterProvider
	logger       *slog.Logger

	mu      sync.RWMutex
	lobbies map[model.LobbyID]*game.Game

	recording sync.WaitGroup
}

// NewController creates a new lobby Controller. deps supplies the services
// shared by every game; its Broadcaster and Recorder are set per lobby.
func NewController(
	config model.GameConfig,
	deps game.Dependencies,
	identity identity.ServiceInterface,
	storage storage.Storage,
	random random.Random,
	broadcasters BroadcasterProvider,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		config:       config,
		deps:         deps,
		identity:     identity,
		storage:      storage,
		random:       random,
		broadcasters: broadcasters,
		logger:       logger.With(slog.String("component", "lobby-controller")),
		lobbies:      make(map[model.LobbyID]*game.Game),
	}
}

// ValidateID reports whether id is acceptable as a lobby id
func ValidateID(id model.LobbyID) error {
	if !validLobbyID.MatchString(string(id)) {
		return model.ErrInvalidLobbyID
	}
	return nil
}

// GetOrCreate returns the lobby with the given id, creating it if missing.
// An empty id creates a lobby with a freshly generated code.
func (c *Controller) GetOrCreate(ctx context.Context, id model.LobbyID) (*game.Game, error) {
	if id != "" {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		code, err := c.generateCodeLocked()
		if err != nil {
			return nil, err
		}
		id = code
	} else if g, ok := c.lobbies[id]; ok {
		return g, nil
	}

	deps := c.deps
	deps.Recorder = c
	if c.broadcasters != nil {
		deps.Broadcaster = c.broadcasters.ForLobby(id)
	}
	g := game.New(id, c.config, deps)
	c.lobbies[id] = g

	c.logger.Info("lobby created", slog.String("lobby_id", string(id)), slog.Int("lobbies", len(c.lobbies)))
	return g, nil
}

func (c *Controller) generateCodeLocked() (model.LobbyID, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := model.LobbyID(c.random.String(LobbyCodeLength, LobbyCodeAlphabet))
		if len(code) != LobbyCodeLength {
			continue
		}
		if _, exists := c.lobbies[code]; !exists {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}

// Get returns an existing lobby
func (c *Controller) Get(id model.LobbyID) (*game.Game, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.lobbies[id]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return g, nil
}

// Count returns the number of live lobbies
func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// Connect attaches conn to a seat in the lobby. A token bound to a seat in
// this lobby reattaches that seat; otherwise a new seat is created and the
// token bound to it. Returns ErrGameAlreadyStarted when a new seat cannot
// be created.
func (c *Controller) Connect(ctx context.Context, lobbyID model.LobbyID, token string, conn game.Conn) (model.PlayerID, error) {
	g, err := c.Get(lobbyID)
	if err != nil {
		return "", err
	}

	session, err := c.identity.Resolve(ctx, token)
	switch {
	case err == nil && session.LobbyID == lobbyID:
		err := g.Reconnect(session.PlayerID, conn)
		if err == nil {
			return session.PlayerID, nil
		}
		if !errors.Is(err, model.ErrPlayerNotFound) {
			return "", err
		}
		// Seat was removed; the token is orphaned and gets a new seat
	case err != nil && !errors.Is(err, model.ErrSessionNotFound):
		return "", err
	}

	playerID, err := g.AddPlayer(conn)
	if err != nil {
		return "", err
	}

	if err := c.identity.Bind(ctx, token, lobbyID, playerID); err != nil {
		g.Disconnect(playerID, conn)
		return "", err
	}
	return playerID, nil
}

// Disconnect detaches conn from its seat. When the seat is removed the
// token is released so a later connection with it gets a new seat.
func (c *Controller) Disconnect(ctx context.Context, lobbyID model.LobbyID, playerID model.PlayerID, token string, conn game.Conn) {
	g, err := c.Get(lobbyID)
	if err != nil {
		return
	}
	if !g.Disconnect(playerID, conn) {
		return
	}

	session, err := c.identity.Resolve(ctx, token)
	if err != nil || session.LobbyID != lobbyID || session.PlayerID != playerID {
		return
	}
	if err := c.identity.Release(ctx, token); err != nil {
		c.logger.Warn("failed to release token",
			slog.String("lobby_id", string(lobbyID)),
			slog.String("error", err.Error()),
		)
	}
}

// Process routes a client message to the sender's lobby
func (c *Controller) Process(lobbyID model.LobbyID, playerID model.PlayerID, msg model.Message) error {
	g, err := c.Get(lobbyID)
	if err != nil {
		return err
	}
	g.Process(playerID, msg)
	return nil
}

// History returns the completed games of a lobby, oldest first
func (c *Controller) History(ctx context.Context, lobbyID model.LobbyID) ([]model.GameSummary, error) {
	summaries, err := c.storage.GetGameSummaries(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		if _, err := c.Get(lobbyID); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// RecordGame persists a completed game without blocking the caller
func (c *Controller) RecordGame(summary model.GameSummary) {
	c.recording.Add(1)
	go func() {
		defer c.recording.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := c.storage.AppendGameSummary(ctx, &summary); err != nil {
			c.logger.Error("failed to record game",
				slog.String("lobby_id", string(summary.LobbyID)),
				slog.String("error", err.Error()),
			)
			return
		}
		c.logger.Info("game recorded",
			slog.String("lobby_id", string(summary.LobbyID)),
			slog.Int("players", len(summary.Results)),
		)
	}()
}

// Wait blocks until pending game records have been written
func (c *Controller) Wait() {
	c.recording.Wait()
}

var _ game.Recorder = (*Controller)(nil)
