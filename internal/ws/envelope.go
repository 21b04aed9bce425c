package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/flippo/internal/model"
)

// Server to client events
const (
	EventIAm         = "iam"
	EventLobbyState  = "lobby_state"
	EventPlayerState = "player_state"
)

// Envelope is the frame of every message in both directions
type Envelope struct {
	E string          `json:"e"`
	D json.RawMessage `json:"d,omitempty"`
}

// CardPayload identifies the card being played and how it is oriented
type CardPayload struct {
	ID    string  `json:"id"`
	Shape [][]int `json:"shape,omitempty"`
	Color int     `json:"color,omitempty"`
}

// PlayPayload is the body of a play event
type PlayPayload struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Card  CardPayload `json:"card"`
	Is1x1 bool        `json:"is1x1,omitempty"`
}

var errMissingPayload = errors.New("missing payload")

// Encode frames a payload as an event
func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{E: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.D = data
	}
	return json.Marshal(env)
}

// DecodeMessage parses a client frame into a game action
func DecodeMessage(data []byte) (model.Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Message{}, fmt.Errorf("malformed envelope: %w", err)
	}

	msg := model.Message{Kind: model.MessageKind(env.E)}
	switch msg.Kind {
	case model.MessageSetName:
		if err := decodePayload(env.D, &msg.Name); err != nil {
			return model.Message{}, err
		}
	case model.MessagePick:
		var id string
		if err := decodePayload(env.D, &id); err != nil {
			return model.Message{}, err
		}
		msg.CardID = model.CardID(id)
	case model.MessagePlay:
		var play PlayPayload
		if err := decodePayload(env.D, &play); err != nil {
			return model.Message{}, err
		}
		msg.Play = &model.PlayRequest{
			X:      play.X,
			Y:      play.Y,
			CardID: model.CardID(play.Card.ID),
			Shape:  model.Shape(play.Card.Shape),
			Color:  model.SquareColor(play.Card.Color),
			Is1x1:  play.Is1x1,
		}
	case model.MessageReady, model.MessageUnready, model.MessageRestart, model.MessageGetState:
	default:
		return model.Message{}, fmt.Errorf("%w: %q", model.ErrUnknownMessage, env.E)
	}
	return msg, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errMissingPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
