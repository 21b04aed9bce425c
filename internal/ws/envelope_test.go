package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/flippo/internal/model"
)

type EnvelopeSuite struct {
	suite.Suite
}

func TestEnvelopeSuite(t *testing.T) {
	suite.Run(t, new(EnvelopeSuite))
}

func (s *EnvelopeSuite) TestEncodeWithPayload() {
	data, err := Encode(EventIAm, "token-1")
	s.Require().NoError(err)
	s.JSONEq(`{"e":"iam","d":"token-1"}`, string(data))
}

func (s *EnvelopeSuite) TestEncodeWithoutPayload() {
	data, err := Encode("ready", nil)
	s.Require().NoError(err)
	s.JSONEq(`{"e":"ready"}`, string(data))
}

func (s *EnvelopeSuite) TestDecodeSimpleEvents() {
	kinds := []model.MessageKind{
		model.MessageReady,
		model.MessageUnready,
		model.MessageRestart,
		model.MessageGetState,
	}
	for _, kind := range kinds {
		msg, err := DecodeMessage([]byte(`{"e":"` + string(kind) + `"}`))
		s.Require().NoError(err, kind)
		s.Equal(kind, msg.Kind)
	}
}

func (s *EnvelopeSuite) TestDecodeSetName() {
	msg, err := DecodeMessage([]byte(`{"e":"set_name","d":"alice"}`))
	s.Require().NoError(err)
	s.Equal(model.MessageSetName, msg.Kind)
	s.Equal("alice", msg.Name)
}

func (s *EnvelopeSuite) TestDecodePick() {
	msg, err := DecodeMessage([]byte(`{"e":"pick","d":"card-1"}`))
	s.Require().NoError(err)
	s.Equal(model.CardID("card-1"), msg.CardID)
}

func (s *EnvelopeSuite) TestDecodePlayShape() {
	msg, err := DecodeMessage([]byte(`{"e":"play","d":{"x":2,"y":3,"card":{"id":"card-1","shape":[[1,1],[1,0]],"color":2}}}`))
	s.Require().NoError(err)
	s.Require().NotNil(msg.Play)

	s.Equal(2, msg.Play.X)
	s.Equal(3, msg.Play.Y)
	s.Equal(model.CardID("card-1"), msg.Play.CardID)
	s.Equal(model.Shape{{1, 1}, {1, 0}}, msg.Play.Shape)
	s.False(msg.Play.Is1x1)
}

func (s *EnvelopeSuite) TestDecodePlaySingle() {
	msg, err := DecodeMessage([]byte(`{"e":"play","d":{"x":0,"y":6,"card":{"id":"card-1","color":3},"is1x1":true}}`))
	s.Require().NoError(err)

	s.True(msg.Play.Is1x1)
	s.Equal(model.Green, msg.Play.Color)
	s.Equal(6, msg.Play.Y)
}

func (s *EnvelopeSuite) TestDecodeUnknownEvent() {
	_, err := DecodeMessage([]byte(`{"e":"cheat"}`))
	s.ErrorIs(err, model.ErrUnknownMessage)
}

func (s *EnvelopeSuite) TestDecodeMalformed() {
	cases := []string{
		`not json`,
		`{"e":"pick"}`,
		`{"e":"pick","d":42}`,
		`{"e":"play","d":"nope"}`,
		`{"e":"set_name","d":{"name":"x"}}`,
	}
	for _, c := range cases {
		_, err := DecodeMessage([]byte(c))
		s.Error(err, c)
	}
}

func (s *EnvelopeSuite) TestEnvelopeRoundTripsRawPayload() {
	data, _ := Encode(EventLobbyState, map[string]int{"turn": 1})

	var env Envelope
	s.Require().NoError(json.Unmarshal(data, &env))
	s.Equal(EventLobbyState, env.E)
	s.JSONEq(`{"turn":1}`, string(env.D))
}
