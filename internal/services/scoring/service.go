package scoring

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/regions"
)

// scoreCardNamespace seeds the name-based ids of score cards so a card's
// id depends only on its label
var scoreCardNamespace = uuid.MustParse("6f1c2f4e-0d0b-4d8e-9a57-3f3b7f0c9a11")

// Service evaluates score cards against player boards
type Service struct {
	analyzer *regions.Analyzer
	cards    []model.Card
	rules    map[model.CardID]Rule
	logger   *slog.Logger
}

// New creates a new ScoringService over the full rule catalog
func New(analyzer *regions.Analyzer, logger *slog.Logger) *Service {
	return NewWithRules(analyzer, Rules(), logger)
}

// NewWithRules creates a ScoringService over a custom rule list
func NewWithRules(analyzer *regions.Analyzer, rules []Rule, logger *slog.Logger) *Service {
	s := &Service{
		analyzer: analyzer,
		rules:    make(map[model.CardID]Rule, len(rules)),
		logger:   logger.With(slog.String("component", "scoring")),
	}
	for _, r := range rules {
		id := model.CardID(uuid.NewSHA1(scoreCardNamespace, []byte(r.Label)).String())
		s.rules[id] = r
		s.cards = append(s.cards, model.Card{
			Type:  model.CardTypeScore,
			ID:    id,
			Label: r.Label,
		})
	}
	return s
}

// Cards returns a copy of the score card catalog
func (s *Service) Cards() []model.Card {
	return append([]model.Card(nil), s.cards...)
}

// Rule looks up the rule carried by a score card
func (s *Service) Rule(id model.CardID) (Rule, bool) {
	r, ok := s.rules[id]
	return r, ok
}

// Evaluate runs one rule against a board within a scoring pass
func (s *Service) Evaluate(rule Rule, board model.Board, pass string) int {
	return rule.Eval(Evaluation{Board: board, Pass: pass, analyzer: s.analyzer})
}

// ScoreBoard evaluates every score card in stack against the board in a
// fresh scoring pass. It returns the total and the contribution of each card.
func (s *Service) ScoreBoard(board model.Board, stack []model.Card) (int, map[model.CardID]int) {
	pass := uuid.NewString()
	defer s.analyzer.Forget(pass)

	total := 0
	contributions := make(map[model.CardID]int, len(stack))
	for _, card := range stack {
		rule, ok := s.rules[card.ID]
		if !ok {
			s.logger.Warn("unknown score card", slog.String("card_id", string(card.ID)))
			continue
		}
		value := s.Evaluate(rule, board, pass)
		contributions[card.ID] += value
		total += value
	}
	return total, contributions
}

// Interface for dependency injection
type ServiceInterface interface {
	Cards() []model.Card
	Rule(id model.CardID) (Rule, bool)
	ScoreBoard(board model.Board, stack []model.Card) (int, map[model.CardID]int)
}

var _ ServiceInterface = (*Service)(nil)
