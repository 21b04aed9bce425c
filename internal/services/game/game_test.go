package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/flippo/internal/dependencies/mocks"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/board"
	"github.com/mcoot/flippo/internal/services/catalog"
	"github.com/mcoot/flippo/internal/services/regions"
	"github.com/mcoot/flippo/internal/services/scoring"
	"github.com/mcoot/flippo/internal/testutil"
)

type GameSuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	scoring     *scoring.Service
	catalog     *catalog.Service
	broadcaster *fakeBroadcaster
	recorder    *fakeRecorder
	config      model.GameConfig
	game        *Game
}

func TestGameSuite(t *testing.T) {
	suite.Run(t, new(GameSuite))
}

func (s *GameSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	analyzer, err := regions.NewAnalyzer(0)
	s.Require().NoError(err)
	s.scoring = scoring.New(analyzer, logger)

	s.catalog, err = catalog.New(s.scoring.Cards(), s.random, logger)
	s.Require().NoError(err)

	s.config = model.DefaultGameConfig()
	s.newGame(s.config)
}

func (s *GameSuite) newGame(config model.GameConfig) {
	s.config = config
	s.broadcaster = &fakeBroadcaster{}
	s.recorder = &fakeRecorder{}
	s.game = New("lobby-1", config, Dependencies{
		Board:       board.New(testutil.NopLogger()),
		Scoring:     s.scoring,
		Catalog:     s.catalog,
		Clock:       s.clock,
		Broadcaster: s.broadcaster,
		Recorder:    s.recorder,
		Logger:      testutil.NopLogger(),
	})
}

// Helpers

func (s *GameSuite) join() (model.PlayerID, *fakeConn) {
	conn := &fakeConn{}
	id, err := s.game.AddPlayer(conn)
	s.Require().NoError(err)
	return id, conn
}

func (s *GameSuite) ready(ids ...model.PlayerID) {
	for _, id := range ids {
		s.game.Process(id, model.Message{Kind: model.MessageReady})
	}
}

func (s *GameSuite) state(id model.PlayerID) model.PlayerSnapshot {
	st, ok := s.game.PlayerState(id)
	s.Require().True(ok)
	return st
}

func (s *GameSuite) pickType(id model.PlayerID, t model.CardType) model.Card {
	for _, c := range s.state(id).Hand {
		if c.Type == t {
			s.game.Process(id, model.Message{Kind: model.MessagePick, CardID: c.ID})
			return c
		}
	}
	s.FailNow("no card of type " + string(t) + " in hand")
	return model.Card{}
}

func (s *GameSuite) playPick(id model.PlayerID, x, y int) {
	pick := s.state(id).Turn.Pick
	s.Require().NotNil(pick)
	s.game.Process(id, model.Message{Kind: model.MessagePlay, Play: &model.PlayRequest{
		X:      x,
		Y:      y,
		CardID: pick.ID,
		Shape:  pick.Shape,
	}})
}

func cardIDs(cards []model.Card) []model.CardID {
	out := make([]model.CardID, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func countType(cards []model.Card, t model.CardType) int {
	n := 0
	for _, c := range cards {
		if c.Type == t {
			n++
		}
	}
	return n
}

// Seating

func (s *GameSuite) TestAddPlayerBroadcastsAndSendsState() {
	id, conn := s.join()

	s.Equal(1, conn.stateCount())
	s.Equal(id, conn.lastState().ID)
	s.True(conn.lastState().Connected)
	s.Len(s.broadcaster.last().Players, 1)
	s.Equal(model.PhaseLobby, s.broadcaster.last().Phase)
}

func (s *GameSuite) TestAddPlayerAfterStartRejected() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	_, err := s.game.AddPlayer(&fakeConn{})
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
	s.Len(s.game.Snapshot().Players, 2)
}

func (s *GameSuite) TestDisconnectInLobbyRemovesSeat() {
	p0, c0 := s.join()
	s.join()

	s.True(s.game.Disconnect(p0, c0))
	s.False(s.game.HasPlayer(p0))
	s.Len(s.broadcaster.last().Players, 1)
}

func (s *GameSuite) TestDisconnectOfLastUnreadySeatStartsGame() {
	p0, _ := s.join()
	p1, _ := s.join()
	p2, c2 := s.join()
	s.ready(p0, p1)
	s.Equal(model.PhaseLobby, s.game.Phase())

	s.True(s.game.Disconnect(p2, c2))
	s.Equal(model.PhasePicking, s.game.Phase())
}

func (s *GameSuite) TestDisconnectWithStaleConnIgnored() {
	p0, _ := s.join()

	s.False(s.game.Disconnect(p0, &fakeConn{}))
	s.True(s.game.HasPlayer(p0))
}

// Lobby phase

func (s *GameSuite) TestReadyRequiresEverySeat() {
	p0, _ := s.join()
	p1, _ := s.join()
	p2, _ := s.join()

	s.ready(p0, p1)
	s.Equal(model.PhaseLobby, s.game.Phase())
	s.Equal(0, s.game.Snapshot().Turn)

	s.ready(p2)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.Equal(1, s.game.Snapshot().Turn)

	// A repeated ready after the start changes nothing
	s.ready(p2)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.Equal(1, s.game.Snapshot().Turn)
}

func (s *GameSuite) TestUnreadyKeepsLobby() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0)
	s.game.Process(p0, model.Message{Kind: model.MessageUnready})
	s.ready(p1)

	s.Equal(model.PhaseLobby, s.game.Phase())
	s.False(s.state(p0).Ready)
	s.True(s.state(p1).Ready)
}

func (s *GameSuite) TestSinglePlayerCannotStartBelowMinimum() {
	p0, _ := s.join()
	s.ready(p0)

	s.Equal(model.PhaseLobby, s.game.Phase())
}

func (s *GameSuite) TestLobbySelfLoopBroadcasts() {
	p0, _ := s.join()
	s.join()
	before := s.broadcaster.count()

	s.ready(p0)
	s.Equal(before+1, s.broadcaster.count())
}

func (s *GameSuite) TestBroadcastSequenceThroughDeal() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	phases := s.broadcaster.phases()
	s.Equal([]model.Phase{model.PhaseLobby, model.PhaseDealing, model.PhasePicking}, phases[len(phases)-3:])
}

// Dealing

func (s *GameSuite) TestDealGivesTetrinosThenScoreCards() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	for _, id := range []model.PlayerID{p0, p1} {
		hand := s.state(id).Hand
		s.Len(hand, 8)
		s.Equal(6, countType(hand, model.CardTypeTetrino))
		s.Equal(2, countType(hand, model.CardTypeScore))
		s.Equal(model.CardTypeScore, hand[7].Type)
	}
	s.NotEqual(cardIDs(s.state(p0).Hand), cardIDs(s.state(p1).Hand))
}

// Full round

func (s *GameSuite) TestTwoPlayerRound() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	pick0 := s.pickType(p0, model.CardTypeTetrino)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.pickType(p1, model.CardTypeTetrino)
	s.Equal(model.PhasePlaying, s.game.Phase())
	s.Len(s.state(p0).Hand, 7)

	s.playPick(p0, 0, 0)
	s.Equal(model.PhasePlaying, s.game.Phase())
	s.playPick(p1, 2, 3)
	s.Equal(model.PhaseScoring, s.game.Phase())

	st0 := s.state(p0)
	s.Equal(len(pick0.Shape.Cells()), st0.Board.FilledCount())
	s.Len(st0.TetrinoStack, 1)
	s.Equal(0, st0.Score)

	hand0 := cardIDs(st0.Hand)
	hand1 := cardIDs(s.state(p1).Hand)

	s.clock.Advance(s.config.ScoringDelay)

	s.Equal(model.PhasePicking, s.game.Phase())
	s.Equal(hand0, cardIDs(s.state(p1).Hand))
	s.Equal(hand1, cardIDs(s.state(p0).Hand))
	s.Nil(s.state(p0).Turn.Pick)
	s.Nil(s.state(p0).Turn.Play)
	s.Contains(s.broadcaster.phases(), model.PhaseRotatingDraft)
}

func (s *GameSuite) TestScoringDelayHoldsPhase() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeTetrino)
	s.pickType(p1, model.CardTypeTetrino)
	s.playPick(p0, 0, 0)
	s.playPick(p1, 0, 0)

	s.clock.Advance(s.config.ScoringDelay - time.Millisecond)
	s.Equal(model.PhaseScoring, s.game.Phase())

	s.clock.Advance(time.Millisecond)
	s.Equal(model.PhasePicking, s.game.Phase())
}

func (s *GameSuite) TestScoresOnlyOwnBoard() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	s.pickType(p0, model.CardTypeScore)
	s.pickType(p1, model.CardTypeTetrino)
	s.Equal(model.PhasePlaying, s.game.Phase())
	s.playPick(p1, 0, 0)
	s.Equal(model.PhaseScoring, s.game.Phase())

	st0 := s.state(p0)
	s.Require().Len(st0.ScoreStack, 1)
	expected, rules := s.scoring.ScoreBoard(st0.Board, st0.ScoreStack)
	s.Equal(expected, st0.Score)
	s.Equal(rules, st0.ScoreRules)

	st1 := s.state(p1)
	s.Empty(st1.ScoreStack)
	s.Equal(0, st1.Score)
}

func (s *GameSuite) TestAllScorePicksForcePlay() {
	cfg := model.DefaultGameConfig()
	cfg.HandTetrinos = 1
	cfg.HandScores = 1
	s.newGame(cfg)

	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeScore)
	s.pickType(p1, model.CardTypeScore)

	s.Equal(model.PhasePlaying, s.game.Phase())
	s.Equal(1, s.clock.PendingTimers())

	s.clock.Advance(cfg.ForcePlayDelay)
	s.Equal(model.PhaseScoring, s.game.Phase())
	s.Len(s.state(p0).ScoreStack, 1)
}

func (s *GameSuite) TestTetrinoPickDoesNotArmForcePlay() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeScore)
	s.pickType(p1, model.CardTypeTetrino)

	s.Equal(0, s.clock.PendingTimers())
	s.clock.Advance(time.Minute)
	s.Equal(model.PhasePlaying, s.game.Phase())
}

// Turn cap and restart

func (s *GameSuite) playSingleCardRound(ids ...model.PlayerID) {
	for _, id := range ids {
		s.pickType(id, model.CardTypeTetrino)
	}
	for _, id := range ids {
		s.playPick(id, 0, 0)
	}
	s.Require().Equal(model.PhaseScoring, s.game.Phase())
	s.clock.Advance(s.config.ScoringDelay)
}

func (s *GameSuite) TestTurnCapEndsGame() {
	cfg := model.DefaultGameConfig()
	cfg.HandTetrinos = 1
	cfg.HandScores = 0
	s.newGame(cfg)

	p0, _ := s.join()
	p1, _ := s.join()
	s.game.Process(p0, model.Message{Kind: model.MessageSetName, Name: "alice"})
	s.ready(p0, p1)

	s.playSingleCardRound(p0, p1)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.Equal(2, s.game.Snapshot().Turn)

	s.playSingleCardRound(p0, p1)
	s.Equal(model.PhaseEnded, s.game.Phase())

	s.Require().Len(s.recorder.summaries, 1)
	summary := s.recorder.summaries[0]
	s.Equal(model.LobbyID("lobby-1"), summary.LobbyID)
	s.Equal(2, summary.Turns)
	s.Len(summary.Results, 2)
	s.Len(summary.WinnerIDs, 2)
	s.Equal(s.clock.Now(), summary.CompletedAt)
}

func (s *GameSuite) TestRestartResetsEverySeat() {
	cfg := model.DefaultGameConfig()
	cfg.HandTetrinos = 1
	cfg.HandScores = 0
	cfg.MaxTurns = 1
	s.newGame(cfg)

	p0, _ := s.join()
	p1, _ := s.join()
	s.game.Process(p0, model.Message{Kind: model.MessageSetName, Name: "alice"})
	s.ready(p0, p1)
	s.playSingleCardRound(p0, p1)
	s.Require().Equal(model.PhaseEnded, s.game.Phase())
	s.NotZero(s.state(p0).Board.FilledCount())

	s.game.Process(p1, model.Message{Kind: model.MessageRestart})

	s.Equal(model.PhaseLobby, s.game.Phase())
	s.Equal(0, s.game.Snapshot().Turn)
	for _, id := range []model.PlayerID{p0, p1} {
		st := s.state(id)
		s.Zero(st.Board.FilledCount())
		s.Empty(st.Hand)
		s.Empty(st.ScoreStack)
		s.Empty(st.TetrinoStack)
		s.Empty(st.ScoreRules)
		s.Zero(st.Score)
		s.False(st.Ready)
		s.True(st.Connected)
		s.Nil(st.Turn.Pick)
	}
	s.Equal("alice", s.state(p0).Name)

	// A new game can start straight away
	s.ready(p0, p1)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.Equal(1, s.game.Snapshot().Turn)
}

func (s *GameSuite) TestRestartKeepsAndResetsGhostSeats() {
	cfg := model.DefaultGameConfig()
	cfg.HandTetrinos = 1
	cfg.HandScores = 0
	cfg.MaxTurns = 1
	s.newGame(cfg)

	p0, _ := s.join()
	p1, c1 := s.join()
	s.ready(p0, p1)
	s.playSingleCardRound(p0, p1)
	s.Require().Equal(model.PhaseEnded, s.game.Phase())

	s.False(s.game.Disconnect(p1, c1))
	s.game.Process(p0, model.Message{Kind: model.MessageRestart})

	s.Equal(model.PhaseLobby, s.game.Phase())
	s.True(s.game.HasPlayer(p1))
	s.Len(s.game.Snapshot().Players, 2)

	ghost := s.state(p1)
	s.True(ghost.Connected)
	s.False(ghost.Ready)
	s.Zero(ghost.Score)
	s.Empty(ghost.Hand)
	s.Zero(ghost.Board.FilledCount())

	// The owner can reclaim the seat and start another game
	s.Require().NoError(s.game.Reconnect(p1, &fakeConn{}))
	s.ready(p0, p1)
	s.Equal(model.PhasePicking, s.game.Phase())
}

func (s *GameSuite) TestRestartOutsideEndedIgnored() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	s.game.Process(p0, model.Message{Kind: model.MessageRestart})
	s.Equal(model.PhasePicking, s.game.Phase())
	s.Len(s.state(p0).Hand, 8)
}

// Action validation

func (s *GameSuite) TestRejectedPlacementStillConsumesTurn() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeTetrino)
	s.pickType(p1, model.CardTypeTetrino)

	s.playPick(p0, 10, 10)

	st := s.state(p0)
	s.Zero(st.Board.FilledCount())
	s.NotNil(st.Turn.Play)
	s.Len(st.TetrinoStack, 1)

	// A second attempt is ignored
	s.playPick(p0, 0, 0)
	s.Zero(s.state(p0).Board.FilledCount())
}

func (s *GameSuite) TestPlayWithWrongCardIgnored() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeTetrino)
	s.pickType(p1, model.CardTypeTetrino)

	other := s.state(p0).Hand[0]
	s.game.Process(p0, model.Message{Kind: model.MessagePlay, Play: &model.PlayRequest{
		X: 0, Y: 0, CardID: other.ID, Shape: other.Shape,
	}})

	s.Nil(s.state(p0).Turn.Play)
	s.Empty(s.state(p0).TetrinoStack)
}

func (s *GameSuite) TestPlayBeforePickIgnored() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	card := s.state(p0).Hand[0]
	s.game.Process(p0, model.Message{Kind: model.MessagePlay, Play: &model.PlayRequest{
		X: 0, Y: 0, CardID: card.ID, Shape: card.Shape,
	}})

	s.Nil(s.state(p0).Turn.Play)
	s.Len(s.state(p0).Hand, 8)
}

func (s *GameSuite) TestPlayDuringPickingAccepted() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeTetrino)

	s.playPick(p0, 0, 0)
	s.Equal(model.PhasePicking, s.game.Phase())
	s.NotNil(s.state(p0).Turn.Play)

	s.pickType(p1, model.CardTypeTetrino)
	s.playPick(p1, 0, 0)
	s.Equal(model.PhaseScoring, s.game.Phase())
}

func (s *GameSuite) TestPickCardNotInHandIgnored() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)

	foreign := s.state(p1).Hand[0]
	s.game.Process(p0, model.Message{Kind: model.MessagePick, CardID: foreign.ID})

	s.Nil(s.state(p0).Turn.Pick)
	s.Len(s.state(p0).Hand, 8)
}

func (s *GameSuite) TestSecondPickIgnored() {
	p0, _ := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	first := s.pickType(p0, model.CardTypeTetrino)

	s.pickType(p0, model.CardTypeTetrino)

	s.Equal(first.ID, s.state(p0).Turn.Pick.ID)
	s.Len(s.state(p0).Hand, 7)
}

func (s *GameSuite) TestPickInLobbyIgnored() {
	p0, _ := s.join()
	s.game.Process(p0, model.Message{Kind: model.MessagePick, CardID: "anything"})

	s.Nil(s.state(p0).Turn.Pick)
}

// Processor

func (s *GameSuite) TestEveryRecognizedMessageResendsState() {
	p0, c0 := s.join()
	before := c0.stateCount()

	s.game.Process(p0, model.Message{Kind: model.MessageGetState})
	s.game.Process(p0, model.Message{Kind: model.MessagePick, CardID: "nope"})
	s.game.Process(p0, model.Message{Kind: model.MessageRestart})

	s.Equal(before+3, c0.stateCount())
}

func (s *GameSuite) TestUnknownMessageDropped() {
	p0, c0 := s.join()
	before := c0.stateCount()

	s.game.Process(p0, model.Message{Kind: "dance"})
	s.Equal(before, c0.stateCount())
}

func (s *GameSuite) TestUnknownPlayerDropped() {
	_, c0 := s.join()
	before := s.broadcaster.count()

	s.game.Process("ghost", model.Message{Kind: model.MessageReady})
	s.Equal(before, s.broadcaster.count())
	s.Equal(1, c0.stateCount())
}

func (s *GameSuite) TestSetNameTruncatedAndBroadcast() {
	p0, _ := s.join()

	s.game.Process(p0, model.Message{Kind: model.MessageSetName, Name: strings.Repeat("ab", 20)})

	s.Equal(strings.Repeat("ab", 16), s.state(p0).Name)
	s.Equal(strings.Repeat("ab", 16), s.broadcaster.last().Players[0].Name)
}

func (s *GameSuite) TestSetNameCountsRunes() {
	p0, _ := s.join()

	s.game.Process(p0, model.Message{Kind: model.MessageSetName, Name: strings.Repeat("é", 40)})
	s.Equal(strings.Repeat("é", 32), s.state(p0).Name)
}

// Reconnection

func (s *GameSuite) TestReconnectMidPlayingRestoresState() {
	p0, c0 := s.join()
	p1, _ := s.join()
	s.ready(p0, p1)
	s.pickType(p0, model.CardTypeTetrino)
	s.pickType(p1, model.CardTypeTetrino)
	s.Require().Equal(model.PhasePlaying, s.game.Phase())

	s.False(s.game.Disconnect(p0, c0))
	s.True(s.game.HasPlayer(p0))
	before := s.state(p0)
	s.False(before.Connected)

	fresh := &fakeConn{}
	s.Require().NoError(s.game.Reconnect(p0, fresh))

	after := fresh.lastState()
	s.True(after.Connected)
	s.Equal(before.Hand, after.Hand)
	s.Equal(before.Board, after.Board)
	s.Equal(before.Turn.Pick.ID, after.Turn.Pick.ID)
	s.Equal(model.PhasePlaying, s.game.Phase())

	// The old connection closing late does not detach the new one
	s.False(s.game.Disconnect(p0, c0))
	s.True(s.state(p0).Connected)
}

func (s *GameSuite) TestReconnectClosesPreviousConn() {
	p0, c0 := s.join()

	s.Require().NoError(s.game.Reconnect(p0, &fakeConn{}))
	s.Equal([]int{CloseCodeReplaced}, c0.closes)
}

func (s *GameSuite) TestReconnectUnknownPlayer() {
	s.ErrorIs(s.game.Reconnect("missing", &fakeConn{}), model.ErrPlayerNotFound)
}

func (s *GameSuite) TestDisconnectedSeatKeepsGameRunning() {
	p0, _ := s.join()
	p1, c1 := s.join()
	s.ready(p0, p1)

	s.game.Disconnect(p1, c1)
	s.pickType(p0, model.CardTypeTetrino)
	s.pickType(p1, model.CardTypeTetrino)

	s.Equal(model.PhasePlaying, s.game.Phase())
	s.False(s.broadcaster.last().Players[1].Connected)
}
