package game

import (
	"log/slog"
	"strings"

	"github.com/mcoot/flippo/internal/model"
)

// Process applies one client action for a seat. Actions that are illegal
// in the current state are dropped without error. After any recognized
// action the acting seat is sent its private state.
func (g *Game) Process(id model.PlayerID, msg model.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.seat(id)
	if s == nil {
		g.logger.Debug("message for unknown player", slog.String("player_id", string(id)))
		return
	}

	switch msg.Kind {
	case model.MessageSetName:
		s.player.Name = g.truncateName(msg.Name)
		g.broadcast()
	case model.MessageReady, model.MessageUnready:
		s.player.Ready = msg.Kind == model.MessageReady
		g.send(model.EventReady)
	case model.MessagePick:
		g.pick(s, msg.CardID)
	case model.MessagePlay:
		g.play(s, msg.Play)
	case model.MessageRestart:
		if g.phase == model.PhaseEnded {
			g.send(model.EventRestart)
		}
	case model.MessageGetState:
	default:
		g.logger.Debug("unknown message", slog.String("kind", string(msg.Kind)))
		return
	}

	g.sendState(s)
}

func (g *Game) truncateName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if g.config.MaxNameLength > 0 && len(runes) > g.config.MaxNameLength {
		runes = runes[:g.config.MaxNameLength]
	}
	return string(runes)
}

func (g *Game) pick(s *seat, id model.CardID) {
	p := s.player
	if g.phase != model.PhasePicking || p.HasPicked() {
		return
	}
	idx := p.HandIndex(id)
	if idx < 0 {
		return
	}

	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx:idx], p.Hand[idx+1:]...)
	p.Turn.Pick = &card
	if card.IsScore() {
		played := card
		p.Turn.Play = &played
	}
	g.send(model.EventPick)
}

// play resolves a tetrino pick onto the board. A placement that fails
// validation leaves the board unchanged but still ends the seat's turn.
func (g *Game) play(s *seat, req *model.PlayRequest) {
	p := s.player
	if req == nil {
		return
	}
	if g.phase != model.PhasePicking && g.phase != model.PhasePlaying {
		return
	}
	if !p.Turn.Pick.IsTetrino() || p.HasPlayed() || req.CardID != p.Turn.Pick.ID {
		return
	}

	if next, err := g.deps.Board.Place(p.Board, p.Turn.Pick, *req); err == nil {
		p.Board = next
	}
	played := *p.Turn.Pick
	p.Turn.Play = &played
	p.TetrinoStack = append(p.TetrinoStack, played)
	g.send(model.EventPlay)
}
