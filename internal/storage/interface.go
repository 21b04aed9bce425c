package storage

import (
	"context"

	"github.com/mcoot/flippo/internal/model"
)

// MaxGameHistory is the number of summaries kept per lobby
const MaxGameHistory = 50

// Storage defines the interface for data persistence.
// Live lobby state is held in memory by the game engine; storage only
// keeps reconnection sessions and completed game history.
type Storage interface {
	// Session operations, keyed by a digest of the reconnection token
	SaveSession(ctx context.Context, key string, session *model.Session) error
	GetSession(ctx context.Context, key string) (*model.Session, error)
	DeleteSession(ctx context.Context, key string) error

	// Game history operations, oldest first
	AppendGameSummary(ctx context.Context, summary *model.GameSummary) error
	GetGameSummaries(ctx context.Context, lobbyID model.LobbyID) ([]model.GameSummary, error)
}
