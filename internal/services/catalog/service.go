package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/flippo/internal/dependencies/random"
	"github.com/mcoot/flippo/internal/model"
)

//go:embed shapes.json
var defaultShapes []byte

// ShapeDef is one entry of a shapes file: count copies of the shape, in each color
type ShapeDef struct {
	Count int `json:"count"`
	Card  struct {
		Shape model.Shape `json:"shape"`
	} `json:"card"`
}

// Service holds the static tetrino and score card catalogs
type Service struct {
	random random.Random
	logger *slog.Logger

	mu       sync.RWMutex
	tetrinos []model.Card
	scores   []model.Card
}

// New creates a catalog with the built-in shapes and the given score cards
func New(scoreCards []model.Card, random random.Random, logger *slog.Logger) (*Service, error) {
	s := &Service{
		random: random,
		logger: logger.With(slog.String("component", "catalog")),
		scores: append([]model.Card(nil), scoreCards...),
	}
	if err := s.LoadJSON(defaultShapes); err != nil {
		return nil, fmt.Errorf("loading built-in shapes: %w", err)
	}
	return s, nil
}

// LoadFromFile replaces the tetrino catalog with the shapes in a JSON file
func (s *Service) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.LoadJSON(data)
}

// LoadJSON replaces the tetrino catalog with JSON encoded shape definitions
func (s *Service) LoadJSON(data []byte) error {
	var defs []ShapeDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("decoding shapes: %w", err)
	}
	return s.LoadShapes(defs)
}

// LoadShapes replaces the tetrino catalog. Every shape is issued count
// times in each placeable color, each copy with its own id.
func (s *Service) LoadShapes(defs []ShapeDef) error {
	var cards []model.Card
	for i, def := range defs {
		if len(def.Card.Shape.Cells()) == 0 {
			return fmt.Errorf("shape %d has no cells: %w", i, model.ErrInvalidShape)
		}
		shape := def.Card.Shape.Normalize()
		for n := 0; n < def.Count; n++ {
			for _, color := range model.PlaceableColors {
				cards = append(cards, model.Card{
					Type:  model.CardTypeTetrino,
					ID:    model.CardID(uuid.NewString()),
					Shape: shape,
					Color: color,
				})
			}
		}
	}
	if len(cards) == 0 {
		return model.ErrEmptyCatalog
	}

	s.mu.Lock()
	s.tetrinos = cards
	s.mu.Unlock()

	s.logger.Info("tetrino catalog loaded", slog.Int("shapes", len(defs)), slog.Int("cards", len(cards)))
	return nil
}

// Tetrinos returns a copy of the tetrino catalog
func (s *Service) Tetrinos() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Card(nil), s.tetrinos...)
}

// ScoreCards returns a copy of the score card catalog
func (s *Service) ScoreCards() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Card(nil), s.scores...)
}

// NewTetrinoStack creates a shuffled draw stack over the tetrino catalog
func (s *Service) NewTetrinoStack() *Stack {
	return NewStack(s.Tetrinos, s.random)
}

// NewScoreStack creates a shuffled draw stack over the score card catalog
func (s *Service) NewScoreStack() *Stack {
	return NewStack(s.ScoreCards, s.random)
}

// Interface for dependency injection
type ServiceInterface interface {
	Tetrinos() []model.Card
	ScoreCards() []model.Card
	NewTetrinoStack() *Stack
	NewScoreStack() *Stack
}

var _ ServiceInterface = (*Service)(nil)
