package model

// MessageKind is the kind of a client action
type MessageKind string

const (
	MessageSetName  MessageKind = "set_name"
	MessageReady    MessageKind = "ready"
	MessageUnready  MessageKind = "unready"
	MessagePick     MessageKind = "pick"
	MessagePlay     MessageKind = "play"
	MessageRestart  MessageKind = "restart"
	MessageGetState MessageKind = "get_state"
)

// PlayRequest is a board placement submission. X is the column and Y
// the row of the shape's top-left corner.
type PlayRequest struct {
	X      int
	Y      int
	CardID CardID
	Shape  Shape       // Oriented shape, shape placements only
	Color  SquareColor // Chosen color, 1x1 placements only
	Is1x1  bool
}

// Message is a decoded client action
type Message struct {
	Kind   MessageKind
	Name   string       // set_name
	CardID CardID       // pick
	Play   *PlayRequest // play
}
