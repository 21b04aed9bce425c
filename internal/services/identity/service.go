package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/storage"
)

// tokenBytes is the entropy of an issued token
const tokenBytes = 24

// ServiceInterface defines the operations of the identity service
type ServiceInterface interface {
	IssueToken() string
	Bind(ctx context.Context, token string, lobbyID model.LobbyID, playerID model.PlayerID) error
	Resolve(ctx context.Context, token string) (*model.Session, error)
	Release(ctx context.Context, token string) error
}

// Service maps opaque reconnection tokens to seats.
// Tokens are never stored in the clear; storage is keyed by their digest.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// New creates a new identity service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "identity")),
	}
}

// IssueToken generates a fresh URL-safe token
func (s *Service) IssueToken() string {
	b := make([]byte, tokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Key returns the storage key for a token
func Key(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Bind maps a token to a seat, replacing any previous mapping
func (s *Service) Bind(ctx context.Context, token string, lobbyID model.LobbyID, playerID model.PlayerID) error {
	if token == "" {
		return model.ErrSessionNotFound
	}
	session := &model.Session{LobbyID: lobbyID, PlayerID: playerID}
	if err := s.storage.SaveSession(ctx, Key(token), session); err != nil {
		return err
	}
	s.logger.Debug("token bound",
		slog.String("lobby_id", string(lobbyID)),
		slog.String("player_id", string(playerID)),
	)
	return nil
}

// Resolve returns the seat a token maps to, or ErrSessionNotFound
func (s *Service) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}
	return s.storage.GetSession(ctx, Key(token))
}

// Release orphans a token so that it no longer maps to any seat
func (s *Service) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.storage.DeleteSession(ctx, Key(token))
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return err
	}
	return nil
}
