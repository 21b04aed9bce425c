package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/flippo/internal/dependencies/clock"
	"github.com/mcoot/flippo/internal/dependencies/random"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/board"
	"github.com/mcoot/flippo/internal/services/catalog"
	"github.com/mcoot/flippo/internal/services/game"
	"github.com/mcoot/flippo/internal/services/identity"
	"github.com/mcoot/flippo/internal/services/lobby"
	"github.com/mcoot/flippo/internal/services/regions"
	"github.com/mcoot/flippo/internal/services/scoring"
	"github.com/mcoot/flippo/internal/storage"
	"github.com/mcoot/flippo/internal/storage/memory"
	redisstorage "github.com/mcoot/flippo/internal/storage/redis"
	"github.com/mcoot/flippo/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	RegionAnalyzer  *regions.Analyzer
	BoardService    *board.Service
	ScoringService  *scoring.Service
	CatalogService  *catalog.Service
	IdentityService *identity.Service
	LobbyController *lobby.Controller
	HubManager      *ws.HubManager

	GameConfig model.GameConfig
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// GameConfig holds the per-lobby game tunables (optional)
	// If zero value, defaults to model.DefaultGameConfig()
	GameConfig model.GameConfig
	// ShapesFile replaces the embedded tetrino shapes (optional)
	ShapesFile string
	// RegionCacheSize bounds the region memo (optional)
	RegionCacheSize int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	gameCfg := cfg.GameConfig
	if gameCfg.BoardSize == 0 {
		gameCfg = model.DefaultGameConfig()
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), gameCfg, cfg.RegionCacheSize, logger)
	if err != nil {
		return nil, err
	}

	if cfg.ShapesFile != "" {
		if err := app.CatalogService.LoadFromFile(cfg.ShapesFile); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	gameCfg model.GameConfig,
	regionCacheSize int,
	logger *slog.Logger,
) (*App, error) {
	analyzer, err := regions.NewAnalyzer(regionCacheSize)
	if err != nil {
		return nil, err
	}

	boardService := board.New(logger)
	scoringService := scoring.New(analyzer, logger)
	catalogService, err := catalog.New(scoringService.Cards(), rnd, logger)
	if err != nil {
		return nil, err
	}
	identityService := identity.New(store, logger)
	hubManager := ws.NewHubManager(logger)

	deps := game.Dependencies{
		Board:   boardService,
		Scoring: scoringService,
		Catalog: catalogService,
		Clock:   clk,
		Logger:  logger,
	}
	lobbyController := lobby.NewController(gameCfg, deps, identityService, store, rnd, hubManager, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		RegionAnalyzer:  analyzer,
		BoardService:    boardService,
		ScoringService:  scoringService,
		CatalogService:  catalogService,
		IdentityService: identityService,
		LobbyController: lobbyController,
		HubManager:      hubManager,
		GameConfig:      gameCfg,
	}, nil
}

// Close flushes pending game records and releases connections
func (a *App) Close() error {
	a.HubManager.Close()
	a.LobbyController.Wait()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
