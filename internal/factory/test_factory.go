package factory

import (
	"time"

	"github.com/mcoot/flippo/internal/dependencies/mocks"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/storage/memory"
	"github.com/mcoot/flippo/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(model.DefaultGameConfig())
}

// NewTestAppWithConfig creates a test App with custom game tunables
func NewTestAppWithConfig(gameCfg model.GameConfig) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(store, mockClock, mockRandom, gameCfg, 0, testutil.NopLogger())
	if err != nil {
		// Only the embedded catalog is loaded here, so this cannot fail
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// SettleTimers advances the mock clock past every game delay
func (t *TestApp) SettleTimers() {
	delay := t.GameConfig.ScoringDelay
	if t.GameConfig.ForcePlayDelay > delay {
		delay = t.GameConfig.ForcePlayDelay
	}
	t.MockClock.Advance(delay)
}
