package memory

import (
	"context"
	"sync"

	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions  map[string]model.Session
	summaries map[model.LobbyID][]model.GameSummary
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:  make(map[string]model.Session),
		summaries: make(map[model.LobbyID][]model.GameSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, key string, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *session
	return nil
}

func (s *Storage) GetSession(ctx context.Context, key string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Game history operations

func (s *Storage) AppendGameSummary(ctx context.Context, summary *model.GameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.summaries[summary.LobbyID], *summary)
	if len(history) > storage.MaxGameHistory {
		history = history[len(history)-storage.MaxGameHistory:]
	}
	s.summaries[summary.LobbyID] = history
	return nil
}

func (s *Storage) GetGameSummaries(ctx context.Context, lobbyID model.LobbyID) ([]model.GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.GameSummary{}, s.summaries[lobbyID]...), nil
}
