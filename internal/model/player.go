package model

// PlayerID uniquely identifies a seat in a lobby
type PlayerID string

// Turn holds a player's selections for the current round
type Turn struct {
	Pick *Card
	Play *Card
}

// Player is one seat in a lobby: board, hand and scoring state
type Player struct {
	ID           PlayerID
	Name         string
	Board        Board
	Hand         []Card
	Turn         Turn
	Score        int
	ScoreRules   map[CardID]int // Per score card contribution from the latest scoring pass
	ScoreStack   []Card
	TetrinoStack []Card
	Connected    bool
	Ready        bool
}

// NewPlayer creates a connected, not-ready player with a blank board
func NewPlayer(id PlayerID, name string, boardSize int) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		Board:      NewBoard(boardSize),
		Hand:       []Card{},
		ScoreRules: map[CardID]int{},
		Connected:  true,
	}
}

// HandIndex returns the index of the card in hand, or -1
func (p *Player) HandIndex(id CardID) int {
	for i := range p.Hand {
		if p.Hand[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPicked returns true once the player selected a card this round
func (p *Player) HasPicked() bool {
	return p.Turn.Pick != nil
}

// HasPlayed returns true once the player resolved their pick this round
func (p *Player) HasPlayed() bool {
	return p.Turn.Play != nil
}

// Snapshot returns a deep copy safe to hand to other goroutines
func (p *Player) Snapshot() PlayerSnapshot {
	rules := make(map[CardID]int, len(p.ScoreRules))
	for k, v := range p.ScoreRules {
		rules[k] = v
	}
	return PlayerSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Board:        p.Board.Clone(),
		Hand:         cloneCards(p.Hand),
		Turn:         Turn{Pick: cloneCard(p.Turn.Pick), Play: cloneCard(p.Turn.Play)},
		Score:        p.Score,
		ScoreRules:   rules,
		ScoreStack:   cloneCards(p.ScoreStack),
		TetrinoStack: cloneCards(p.TetrinoStack),
		Connected:    p.Connected,
		Ready:        p.Ready,
	}
}

// PlayerSnapshot is an immutable copy of a player's full state
type PlayerSnapshot struct {
	ID           PlayerID
	Name         string
	Board        Board
	Hand         []Card
	Turn         Turn
	Score        int
	ScoreRules   map[CardID]int
	ScoreStack   []Card
	TetrinoStack []Card
	Connected    bool
	Ready        bool
}

func cloneCard(c *Card) *Card {
	if c == nil {
		return nil
	}
	out := *c
	out.Shape = c.Shape.Normalize()
	return &out
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i := range cards {
		out[i] = cards[i]
		if cards[i].Shape != nil {
			out[i].Shape = cards[i].Shape.Normalize()
		}
	}
	return out
}
