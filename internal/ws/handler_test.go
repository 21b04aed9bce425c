package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/flippo/internal/api/response"
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
	"github.com/mcoot/flippo/internal/storage/memory"
	"github.com/mcoot/flippo/internal/testutil"
)

type HandlerSuite struct {
	suite.Suite
	hubs       *HubManager
	identity   *identity.Service
	controller *lobby.Controller
	server     *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	store := memory.New()
	rng := random.New()

	analyzer, err := regions.NewAnalyzer(0)
	s.Require().NoError(err)
	scoringService := scoring.New(analyzer, logger)
	catalogService, err := catalog.New(scoringService.Cards(), rng, logger)
	s.Require().NoError(err)

	s.hubs = NewHubManager(logger)
	s.identity = identity.New(store, logger)
	deps := game.Dependencies{
		Board:   board.New(logger),
		Scoring: scoringService,
		Catalog: catalogService,
		Clock:   clock.New(),
		Logger:  logger,
	}
	s.controller = lobby.NewController(model.DefaultGameConfig(), deps, s.identity, store, rng, s.hubs, logger)
	s.server = httptest.NewServer(NewHandler(s.controller, s.identity, s.hubs, logger))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
	s.hubs.Close()
}

func (s *HandlerSuite) dial(query string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func (s *HandlerSuite) connect(query string) *websocket.Conn {
	conn, _, err := s.dial(query)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// next reads frames until one with the given event arrives
func (s *HandlerSuite) next(conn *websocket.Conn, event string) json.RawMessage {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)
		var env Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		if env.E == event {
			return env.D
		}
	}
}

func (s *HandlerSuite) send(conn *websocket.Conn, event string, payload any) {
	data, err := Encode(event, payload)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, data))
}

func (s *HandlerSuite) TestUnknownLobbyIs404() {
	_, resp, err := s.dial("lobby=missing")
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestConnectIssuesTokenAndState() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	conn := s.connect("lobby=L1")

	var token string
	s.Require().NoError(json.Unmarshal(s.next(conn, EventIAm), &token))
	s.NotEmpty(token)

	var lobbyState response.Lobby
	s.Require().NoError(json.Unmarshal(s.next(conn, EventLobbyState), &lobbyState))
	s.Equal("L1", lobbyState.ID)
	s.Equal("lobby", lobbyState.State)
	s.Len(lobbyState.Players, 1)

	var me response.PrivatePlayer
	s.Require().NoError(json.Unmarshal(s.next(conn, EventPlayerState), &me))
	s.Equal(lobbyState.Players[0].ID, me.ID)
	s.Empty(me.Hand)
}

func (s *HandlerSuite) TestFramesArriveInEmissionOrder() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	conn := s.connect("lobby=L1")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var events []string
	for len(events) < 3 {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)
		var env Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		events = append(events, env.E)
	}

	s.Equal([]string{EventIAm, EventLobbyState, EventPlayerState}, events)
}

func (s *HandlerSuite) TestSuppliedTokenIsEchoed() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	conn := s.connect("lobby=L1&iam=my-token")

	var token string
	s.Require().NoError(json.Unmarshal(s.next(conn, EventIAm), &token))
	s.Equal("my-token", token)
}

func (s *HandlerSuite) TestSetNameBroadcastsToOthers() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	alice := s.connect("lobby=L1&iam=alice")
	bob := s.connect("lobby=L1&iam=bob")
	s.next(alice, EventPlayerState)
	s.next(bob, EventPlayerState)

	s.send(alice, "set_name", "Alice")

	s.True(s.awaitLobbyState(bob, func(state response.Lobby) bool {
		for _, p := range state.Players {
			if p.Name == "Alice" {
				return true
			}
		}
		return false
	}))
}

// awaitLobbyState reads lobby states until match accepts one
func (s *HandlerSuite) awaitLobbyState(conn *websocket.Conn, match func(response.Lobby) bool) bool {
	for i := 0; i < 20; i++ {
		var state response.Lobby
		s.Require().NoError(json.Unmarshal(s.next(conn, EventLobbyState), &state))
		if match(state) {
			return true
		}
	}
	return false
}

func (s *HandlerSuite) TestLateJoinerRejectedWithCloseCode() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	alice := s.connect("lobby=L1&iam=alice")
	bob := s.connect("lobby=L1&iam=bob")
	s.next(alice, EventPlayerState)
	s.next(bob, EventPlayerState)

	s.send(alice, "ready", nil)
	s.send(bob, "ready", nil)

	g, _ := s.controller.Get("L1")
	s.Eventually(func() bool { return g.Phase() == model.PhasePicking }, 2*time.Second, 10*time.Millisecond)

	late := s.connect("lobby=L1&iam=carol")
	s.next(late, EventIAm)

	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	var closeErr *websocket.CloseError
	for {
		_, _, err := late.ReadMessage()
		if err == nil {
			continue
		}
		s.Require().ErrorAs(err, &closeErr)
		break
	}
	s.Equal(game.CloseCodeGameStarted, closeErr.Code)
	s.Equal(game.CloseReasonGameStarted, closeErr.Text)
}

func (s *HandlerSuite) TestReconnectMidGameRestoresSeat() {
	_, _ = s.controller.GetOrCreate(context.Background(), "L1")
	alice := s.connect("lobby=L1&iam=alice")
	bob := s.connect("lobby=L1&iam=bob")
	s.next(alice, EventPlayerState)
	s.next(bob, EventPlayerState)

	s.send(alice, "ready", nil)
	s.send(bob, "ready", nil)

	g, _ := s.controller.Get("L1")
	s.Eventually(func() bool { return g.Phase() == model.PhasePicking }, 2*time.Second, 10*time.Millisecond)

	var before response.PrivatePlayer
	for len(before.Hand) == 0 {
		s.Require().NoError(json.Unmarshal(s.next(alice, EventPlayerState), &before))
	}
	_ = alice.Close()

	s.Eventually(func() bool {
		state, _ := g.PlayerState(model.PlayerID(before.ID))
		return !state.Connected
	}, 2*time.Second, 10*time.Millisecond)

	again := s.connect("lobby=L1&iam=alice")
	var after response.PrivatePlayer
	s.Require().NoError(json.Unmarshal(s.next(again, EventPlayerState), &after))

	s.Equal(before.ID, after.ID)
	s.Equal(before.Hand, after.Hand)
	s.True(after.Connected)
}
