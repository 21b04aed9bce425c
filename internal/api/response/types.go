package response

import (
	"time"

	"github.com/mcoot/flippo/internal/model"
)

// Card represents a tetrino or score card
type Card struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Shape [][]int `json:"shape,omitempty"`
	Color int     `json:"color,omitempty"`
	Label string  `json:"label,omitempty"`
}

// CardFromModel converts a model.Card
func CardFromModel(c *model.Card) *Card {
	if c == nil {
		return nil
	}
	card := &Card{
		Type:  string(c.Type),
		ID:    string(c.ID),
		Label: c.Label,
	}
	if c.IsTetrino() {
		card.Shape = c.Shape
		card.Color = int(c.Color)
	}
	return card
}

func cardsFromModel(cards []model.Card) []Card {
	result := make([]Card, len(cards))
	for i := range cards {
		result[i] = *CardFromModel(&cards[i])
	}
	return result
}

// Turn is a player's pick and play for the current draft pass
type Turn struct {
	Pick *Card `json:"pick"`
	Play *Card `json:"play"`
}

// Player is the public view of a seat; hand and scoring breakdown are withheld
type Player struct {
	ID        string  `json:"id"`
	Board     [][]int `json:"board"`
	Turn      Turn    `json:"turn"`
	Name      string  `json:"name"`
	Score     int     `json:"score"`
	Connected bool    `json:"connected"`
	Ready     bool    `json:"ready"`
}

// PlayerFromModel converts a player snapshot to its public view
func PlayerFromModel(p model.PlayerSnapshot) Player {
	return Player{
		ID:    string(p.ID),
		Board: boardFromModel(p.Board),
		Turn: Turn{
			Pick: CardFromModel(p.Turn.Pick),
			Play: CardFromModel(p.Turn.Play),
		},
		Name:      p.Name,
		Score:     p.Score,
		Connected: p.Connected,
		Ready:     p.Ready,
	}
}

// PrivatePlayer is the full view of a seat, sent only to its owner
type PrivatePlayer struct {
	Player
	Hand         []Card         `json:"hand"`
	ScoreRules   map[string]int `json:"scoreRules"`
	ScoreStack   []Card         `json:"scoreStack"`
	TetrinoStack []Card         `json:"tetrinoStack"`
}

// PrivatePlayerFromModel converts a player snapshot to its private view
func PrivatePlayerFromModel(p model.PlayerSnapshot) PrivatePlayer {
	rules := make(map[string]int, len(p.ScoreRules))
	for id, points := range p.ScoreRules {
		rules[string(id)] = points
	}
	return PrivatePlayer{
		Player:       PlayerFromModel(p),
		Hand:         cardsFromModel(p.Hand),
		ScoreRules:   rules,
		ScoreStack:   cardsFromModel(p.ScoreStack),
		TetrinoStack: cardsFromModel(p.TetrinoStack),
	}
}

// Lobby is the public view of a lobby
type Lobby struct {
	ID      string   `json:"id"`
	State   string   `json:"state"`
	Turn    int      `json:"turn"`
	Players []Player `json:"players"`
}

// LobbyFromModel converts a lobby snapshot
func LobbyFromModel(l model.LobbySnapshot) Lobby {
	players := make([]Player, len(l.Players))
	for i, p := range l.Players {
		players[i] = PlayerFromModel(p)
	}
	return Lobby{
		ID:      string(l.ID),
		State:   string(l.Phase),
		Turn:    l.Turn,
		Players: players,
	}
}

// PlayerResult is one player's standing in a completed game
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Winner   bool   `json:"winner"`
}

// GameSummary represents a completed game
type GameSummary struct {
	Turns       int            `json:"turns"`
	Results     []PlayerResult `json:"results"`
	CompletedAt time.Time      `json:"completed_at"`
}

// GameSummaryFromModel converts model.GameSummary
func GameSummaryFromModel(s model.GameSummary) GameSummary {
	winners := make(map[model.PlayerID]bool, len(s.WinnerIDs))
	for _, id := range s.WinnerIDs {
		winners[id] = true
	}
	results := make([]PlayerResult, len(s.Results))
	for i, r := range s.Results {
		results[i] = PlayerResult{
			PlayerID: string(r.PlayerID),
			Name:     r.Name,
			Score:    r.Score,
			Winner:   winners[r.PlayerID],
		}
	}
	return GameSummary{
		Turns:       s.Turns,
		Results:     results,
		CompletedAt: s.CompletedAt,
	}
}

// LobbyHistory lists a lobby's completed games, oldest first
type LobbyHistory struct {
	LobbyID string        `json:"lobby_id"`
	Games   []GameSummary `json:"games"`
}

// LobbyHistoryFromModel converts a lobby's summaries
func LobbyHistoryFromModel(id model.LobbyID, summaries []model.GameSummary) LobbyHistory {
	games := make([]GameSummary, len(summaries))
	for i, s := range summaries {
		games[i] = GameSummaryFromModel(s)
	}
	return LobbyHistory{
		LobbyID: string(id),
		Games:   games,
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Lobbies int    `json:"lobbies"`
}

func boardFromModel(b model.Board) [][]int {
	rows := make([][]int, len(b))
	for i, row := range b {
		rows[i] = make([]int, len(row))
		for j, c := range row {
			rows[i][j] = int(c)
		}
	}
	return rows
}
