package game

import (
	"log/slog"
	"sort"
	"time"

	"github.com/mcoot/flippo/internal/model"
)

type guard func(g *Game) bool

type transition struct {
	target model.Phase
	guard  guard // nil always passes
}

// transitions lists, per phase and event, the candidate targets in
// priority order. The first candidate whose guard passes is taken.
// Events missing from the table are ignored.
var transitions = map[model.Phase]map[model.Event][]transition{
	model.PhaseLobby: {
		model.EventReady: {
			{target: model.PhaseDealing, guard: allReady},
			{target: model.PhaseLobby},
		},
	},
	model.PhaseDealing: {
		model.EventDealt: {{target: model.PhasePicking}},
	},
	model.PhasePicking: {
		model.EventPick: {
			{target: model.PhasePlaying, guard: allPicked},
			{target: model.PhasePicking},
		},
	},
	model.PhasePlaying: {
		model.EventPlay: {
			{target: model.PhaseScoring, guard: allPlayed},
			{target: model.PhasePlaying},
		},
	},
	model.PhaseScoring: {
		model.EventScored: {
			{target: model.PhaseRotatingDraft, guard: draftHasCards},
			{target: model.PhaseEnded, guard: maxTurnsReached},
			{target: model.PhaseDealing},
		},
	},
	model.PhaseRotatingDraft: {
		model.EventRotated: {{target: model.PhasePicking}},
	},
	model.PhaseEnded: {
		model.EventRestart: {{target: model.PhaseLobby}},
	},
}

func allReady(g *Game) bool {
	if len(g.seats) < g.config.MinPlayers || len(g.seats) == 0 {
		return false
	}
	for _, s := range g.seats {
		if !s.player.Ready {
			return false
		}
	}
	return true
}

func allPicked(g *Game) bool {
	for _, s := range g.seats {
		if !s.player.HasPicked() {
			return false
		}
	}
	return true
}

func allPlayed(g *Game) bool {
	for _, s := range g.seats {
		if !s.player.HasPlayed() {
			return false
		}
	}
	return true
}

func draftHasCards(g *Game) bool {
	for _, s := range g.seats {
		if len(s.player.Hand) > 0 {
			return true
		}
	}
	return false
}

func maxTurnsReached(g *Game) bool {
	return g.turn >= g.config.MaxTurns
}

// send queues an event. Events raised while another event is being
// handled run after it completes, in order. Callers hold mu.
func (g *Game) send(event model.Event) {
	g.queue = append(g.queue, event)
	if g.dispatching {
		return
	}
	g.dispatching = true
	for len(g.queue) > 0 {
		next := g.queue[0]
		g.queue = g.queue[1:]
		g.handle(next)
	}
	g.dispatching = false
}

func (g *Game) handle(event model.Event) {
	candidates, ok := transitions[g.phase][event]
	if !ok {
		g.logger.Debug("event ignored", slog.String("event", string(event)), slog.String("phase", string(g.phase)))
		return
	}

	from := g.phase
	target := from
	matched := false
	for _, t := range candidates {
		if t.guard == nil || t.guard(g) {
			target = t.target
			matched = true
			break
		}
	}
	if !matched {
		return
	}

	if target != from {
		g.phase = target
		g.epoch++
		g.logger.Info("phase changed",
			slog.String("from", string(from)),
			slog.String("to", string(target)),
			slog.String("event", string(event)),
			slog.Int("turn", g.turn),
		)
		g.enter(target)
	}
	g.broadcast()
}

func (g *Game) enter(phase model.Phase) {
	switch phase {
	case model.PhaseLobby:
		g.reset()
	case model.PhaseDealing:
		g.deal()
	case model.PhasePlaying:
		g.armForcedPlay()
	case model.PhaseScoring:
		g.score()
	case model.PhaseRotatingDraft:
		g.rotateHands()
	case model.PhaseEnded:
		g.recordGame()
	}
}

// schedule raises event after d unless the phase has changed by then
func (g *Game) schedule(d time.Duration, event model.Event) {
	epoch := g.epoch
	g.deps.Clock.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.epoch != epoch {
			return
		}
		g.send(event)
	})
}

func (g *Game) deal() {
	g.turn++
	g.tetrinos.Ensure(len(g.seats) * g.config.HandTetrinos)
	g.scores.Ensure(len(g.seats) * g.config.HandScores)

	for _, s := range g.seats {
		hand := g.tetrinos.Draw(g.config.HandTetrinos)
		hand = append(hand, g.scores.Draw(g.config.HandScores)...)
		s.player.Hand = hand
		s.player.Turn = model.Turn{}
		g.sendState(s)
	}
	g.send(model.EventDealt)
}

// armForcedPlay covers the case where every pick was a score card: no
// placement will ever raise play, so one is raised after a delay
func (g *Game) armForcedPlay() {
	if g.forcedPlay || !allPlayed(g) {
		return
	}
	g.forcedPlay = true
	g.schedule(g.config.ForcePlayDelay, model.EventPlay)
}

func (g *Game) score() {
	g.forcedPlay = false
	for _, s := range g.seats {
		p := s.player
		if p.Turn.Play.IsScore() {
			p.ScoreStack = append(p.ScoreStack, *p.Turn.Play)
		}
		p.Score, p.ScoreRules = g.deps.Scoring.ScoreBoard(p.Board, p.ScoreStack)
		g.logger.Debug("player scored", slog.String("player_id", string(p.ID)), slog.Int("score", p.Score))
		g.sendState(s)
	}
	g.schedule(g.config.ScoringDelay, model.EventScored)
}

// rotateHands passes the hand of each seat to the next seat
func (g *Game) rotateHands() {
	n := len(g.seats)
	if n > 0 {
		hands := make([][]model.Card, n)
		for i, s := range g.seats {
			hands[(i+1)%n] = s.player.Hand
		}
		for i, s := range g.seats {
			s.player.Hand = hands[i]
			s.player.Turn = model.Turn{}
			g.sendState(s)
		}
	}
	g.send(model.EventRotated)
}

func (g *Game) recordGame() {
	summary := model.GameSummary{
		LobbyID:     g.id,
		Turns:       g.turn,
		CompletedAt: g.deps.Clock.Now(),
	}
	for _, s := range g.seats {
		summary.Results = append(summary.Results, model.PlayerResult{
			PlayerID: s.player.ID,
			Name:     s.player.Name,
			Score:    s.player.Score,
		})
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Score > summary.Results[j].Score
	})
	for _, r := range summary.Results {
		if r.Score == summary.Results[0].Score {
			summary.WinnerIDs = append(summary.WinnerIDs, r.PlayerID)
		}
	}

	g.logger.Info("game ended", slog.Int("players", len(summary.Results)), slog.Int("turns", g.turn))
	if g.deps.Recorder != nil {
		g.deps.Recorder.RecordGame(summary)
	}
}

// reset clears every seat for a new game. Ghost seats are kept and marked
// connected again so their owners can reclaim them.
func (g *Game) reset() {
	g.turn = 0
	g.forcedPlay = false
	g.tetrinos.Reset()
	g.scores.Reset()

	for _, s := range g.seats {
		s.player = model.NewPlayer(s.player.ID, s.player.Name, g.config.BoardSize)
		g.sendState(s)
	}
}
