package game

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/flippo/internal/dependencies/clock"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/board"
	"github.com/mcoot/flippo/internal/services/catalog"
	"github.com/mcoot/flippo/internal/services/scoring"
)

// Close codes sent to connections the game refuses or replaces
const (
	CloseCodeGameStarted = 4000
	CloseCodeReplaced    = 4001

	CloseReasonGameStarted = "Game already started"
	CloseReasonReplaced    = "Replaced by a new connection"
)

// Conn is a seat's live connection. Implementations must not block.
type Conn interface {
	SendPlayerState(state model.PlayerSnapshot)
	Close(code int, reason string)
}

// Broadcaster fans lobby state out to every connection subscribed to the
// lobby. Implementations must not block.
type Broadcaster interface {
	BroadcastLobbyState(state model.LobbySnapshot)
}

// Recorder receives completed game summaries. Implementations must not block.
type Recorder interface {
	RecordGame(summary model.GameSummary)
}

// Dependencies are the collaborators shared by every Game
type Dependencies struct {
	Board       board.ServiceInterface
	Scoring     scoring.ServiceInterface
	Catalog     catalog.ServiceInterface
	Clock       clock.Clock
	Broadcaster Broadcaster
	Recorder    Recorder
	Logger      *slog.Logger
}

type seat struct {
	player *model.Player
	conn   Conn
}

// Game is the authoritative state of one lobby. All mutation happens
// under mu, including events raised by timers.
type Game struct {
	id     model.LobbyID
	config model.GameConfig
	deps   Dependencies
	logger *slog.Logger

	mu          sync.Mutex
	phase       model.Phase
	seats       []*seat // Seating order
	tetrinos    *catalog.Stack
	scores      *catalog.Stack
	turn        int
	forcedPlay  bool   // Force-play timer already armed for this playing phase
	epoch       uint64 // Incremented on every phase change
	queue       []model.Event
	dispatching bool
}

// New creates a game in the lobby phase with freshly shuffled draw stacks
func New(id model.LobbyID, config model.GameConfig, deps Dependencies) *Game {
	return &Game{
		id:       id,
		config:   config,
		deps:     deps,
		logger:   deps.Logger.With(slog.String("lobby", string(id))),
		phase:    model.PhaseLobby,
		tetrinos: deps.Catalog.NewTetrinoStack(),
		scores:   deps.Catalog.NewScoreStack(),
	}
}

// ID returns the lobby id
func (g *Game) ID() model.LobbyID {
	return g.id
}

// Phase returns the current phase
func (g *Game) Phase() model.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// HasPlayer reports whether the lobby has a seat with this id
func (g *Game) HasPlayer(id model.PlayerID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seat(id) != nil
}

// PlayerState returns the full private state of one seat
func (g *Game) PlayerState(id model.PlayerID) (model.PlayerSnapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.seat(id)
	if s == nil {
		return model.PlayerSnapshot{}, false
	}
	return s.player.Snapshot(), true
}

// Snapshot returns the current lobby state
func (g *Game) Snapshot() model.LobbySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// AddPlayer seats a new player. Seats can only be added in the lobby phase.
func (g *Game) AddPlayer(conn Conn) (model.PlayerID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != model.PhaseLobby {
		return "", model.ErrGameAlreadyStarted
	}

	id := model.PlayerID(uuid.NewString())
	g.seats = append(g.seats, &seat{
		player: model.NewPlayer(id, "", g.config.BoardSize),
		conn:   conn,
	})
	g.logger.Info("player joined", slog.String("player_id", string(id)), slog.Int("players", len(g.seats)))

	g.broadcast()
	g.sendState(g.seats[len(g.seats)-1])
	return id, nil
}

// Reconnect reattaches a connection to an existing seat, closing any
// connection the seat still holds
func (g *Game) Reconnect(id model.PlayerID, conn Conn) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.seat(id)
	if s == nil {
		return model.ErrPlayerNotFound
	}
	if s.conn != nil && s.conn != conn {
		s.conn.Close(CloseCodeReplaced, CloseReasonReplaced)
	}
	s.conn = conn
	s.player.Connected = true
	g.logger.Info("player reconnected", slog.String("player_id", string(id)), slog.String("phase", string(g.phase)))

	g.broadcast()
	g.sendState(s)
	return nil
}

// Disconnect detaches conn from its seat. In the lobby phase the seat is
// removed and true is returned; afterwards it stays as a ghost seat.
// Calls with a connection the seat no longer holds are ignored.
func (g *Game) Disconnect(id model.PlayerID, conn Conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.seatIndex(id)
	if idx < 0 || g.seats[idx].conn != conn {
		return false
	}
	s := g.seats[idx]
	s.conn = nil
	s.player.Connected = false

	if g.phase != model.PhaseLobby {
		g.logger.Info("player disconnected", slog.String("player_id", string(id)), slog.String("phase", string(g.phase)))
		g.broadcast()
		return false
	}

	g.seats = append(g.seats[:idx], g.seats[idx+1:]...)
	g.logger.Info("player left", slog.String("player_id", string(id)), slog.Int("players", len(g.seats)))
	// The leaver may have been the last seat not ready
	g.send(model.EventReady)
	return true
}

func (g *Game) seat(id model.PlayerID) *seat {
	if idx := g.seatIndex(id); idx >= 0 {
		return g.seats[idx]
	}
	return nil
}

func (g *Game) seatIndex(id model.PlayerID) int {
	for i, s := range g.seats {
		if s.player.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) snapshotLocked() model.LobbySnapshot {
	players := make([]model.PlayerSnapshot, len(g.seats))
	for i, s := range g.seats {
		players[i] = s.player.Snapshot()
	}
	return model.LobbySnapshot{
		ID:      g.id,
		Phase:   g.phase,
		Turn:    g.turn,
		Players: players,
	}
}

func (g *Game) broadcast() {
	if g.deps.Broadcaster != nil {
		g.deps.Broadcaster.BroadcastLobbyState(g.snapshotLocked())
	}
}

func (g *Game) sendState(s *seat) {
	if s.conn != nil {
		s.conn.SendPlayerState(s.player.Snapshot())
	}
}
