package model

import "time"

// LobbyID is a shareable identifier for a lobby
type LobbyID string

// Phase is a state of the per-lobby game machine
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseDealing       Phase = "dealing"
	PhasePicking       Phase = "picking"
	PhasePlaying       Phase = "playing"
	PhaseScoring       Phase = "scoring"
	PhaseRotatingDraft Phase = "rotating-draft"
	PhaseEnded         Phase = "ended"
)

// Event drives transitions of the game machine
type Event string

const (
	EventReady   Event = "ready"
	EventDealt   Event = "dealt"
	EventPick    Event = "pick"
	EventPlay    Event = "play"
	EventScored  Event = "scored"
	EventRotated Event = "rotated"
	EventRestart Event = "restart"
)

// GameConfig holds the tunables of a lobby's game
type GameConfig struct {
	BoardSize      int
	HandTetrinos   int // Tetrino cards dealt per player per deal
	HandScores     int // Score cards dealt per player per deal
	MaxTurns       int // Deals before the game ends
	MinPlayers     int // Seats required before all-ready starts a game
	MaxNameLength  int
	ForcePlayDelay time.Duration
	ScoringDelay   time.Duration
}

// DefaultGameConfig returns the standard configuration
func DefaultGameConfig() GameConfig {
	return GameConfig{
		BoardSize:      7,
		HandTetrinos:   6,
		HandScores:     2,
		MaxTurns:       2,
		MinPlayers:     2,
		MaxNameLength:  32,
		ForcePlayDelay: time.Second,
		ScoringDelay:   1500 * time.Millisecond,
	}
}

// LobbySnapshot is the public view of a lobby at one instant
type LobbySnapshot struct {
	ID      LobbyID
	Phase   Phase
	Turn    int
	Players []PlayerSnapshot // Seating order
}

// PlayerResult is one player's final standing in a completed game
type PlayerResult struct {
	PlayerID PlayerID
	Name     string
	Score    int
}

// GameSummary records a completed game in a lobby
type GameSummary struct {
	LobbyID     LobbyID
	Turns       int
	Results     []PlayerResult // Descending by score
	WinnerIDs   []PlayerID     // More than one on a tie
	CompletedAt time.Time
}

// Session binds a reconnection token to a seat
type Session struct {
	LobbyID  LobbyID
	PlayerID PlayerID
}
