package model

import "errors"

// Common errors used across the application
var (
	// Lobby errors
	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrInvalidLobbyID     = errors.New("invalid lobby id")
	ErrGameAlreadyStarted = errors.New("game already started")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Placement errors
	ErrOutOfBounds        = errors.New("placement out of bounds")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrInvalidShape       = errors.New("shape does not match the picked card")
	ErrInvalidColor       = errors.New("invalid tile color")
	ErrPlacementAvailable = errors.New("a shape placement is still available")

	// Protocol errors
	ErrUnknownMessage = errors.New("unknown message")

	// Catalog errors
	ErrEmptyCatalog = errors.New("card catalog is empty")
)
