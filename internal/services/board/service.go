package board

import (
	"log/slog"

	"github.com/mcoot/flippo/internal/model"
)

// Service validates and commits tile placements on player boards
type Service struct {
	logger *slog.Logger
}

// New creates a new BoardService
func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger.With(slog.String("component", "board")),
	}
}

// Place validates a play request against the picked card and returns the
// resulting board. The input board is never modified: on error the caller
// keeps its board exactly as it was.
func (s *Service) Place(board model.Board, pick *model.Card, req model.PlayRequest) (model.Board, error) {
	if !pick.IsTetrino() {
		return nil, model.ErrInvalidShape
	}
	var (
		out model.Board
		err error
	)
	if req.Is1x1 {
		out, err = s.PlaceSingle(board, pick.Shape, req.Color, model.Position{Row: req.Y, Col: req.X})
	} else {
		out, err = s.PlaceShape(board, pick.Shape, req.Shape, pick.Color, model.Position{Row: req.Y, Col: req.X})
	}
	if err != nil {
		s.logger.Debug("placement rejected",
			slog.String("card_id", string(pick.ID)),
			slog.Int("x", req.X),
			slog.Int("y", req.Y),
			slog.Bool("is_1x1", req.Is1x1),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return out, nil
}

// PlaceShape places an oriented shape with its top-left corner at anchor.
// The oriented shape must be a rotation or reflection of the picked shape.
func (s *Service) PlaceShape(board model.Board, picked, oriented model.Shape, color model.SquareColor, anchor model.Position) (model.Board, error) {
	if !color.IsPlaceable() {
		return nil, model.ErrInvalidColor
	}
	if !IsOrientationOf(picked, oriented) {
		return nil, model.ErrInvalidShape
	}

	working := board.Clone()
	for _, cell := range oriented.Cells() {
		pos := model.Position{Row: anchor.Row + cell.Row, Col: anchor.Col + cell.Col}
		if !working.IsValidPosition(pos) {
			return nil, model.ErrOutOfBounds
		}
		if working[pos.Row][pos.Col] != model.Blank {
			return nil, model.ErrCellOccupied
		}
		working[pos.Row][pos.Col] = color
	}
	return working, nil
}

// PlaceSingle is the 1x1 fallback: one cell of a chosen color, only
// allowed when the picked shape fits nowhere on the board. A full board
// may have any cell overwritten.
func (s *Service) PlaceSingle(board model.Board, picked model.Shape, color model.SquareColor, pos model.Position) (model.Board, error) {
	if !color.IsPlaceable() {
		return nil, model.ErrInvalidColor
	}
	if !board.IsValidPosition(pos) {
		return nil, model.ErrOutOfBounds
	}
	if s.CanPlaceAnywhere(board, picked) {
		return nil, model.ErrPlacementAvailable
	}
	if board[pos.Row][pos.Col] != model.Blank && !board.IsFull() {
		return nil, model.ErrCellOccupied
	}

	working := board.Clone()
	working[pos.Row][pos.Col] = color
	return working, nil
}

// CanPlace reports whether the shape fits with its top-left corner at anchor
func (s *Service) CanPlace(board model.Board, shape model.Shape, anchor model.Position) bool {
	cells := shape.Cells()
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		pos := model.Position{Row: anchor.Row + cell.Row, Col: anchor.Col + cell.Col}
		if board.Get(pos) != model.Blank {
			return false
		}
	}
	return true
}

// CanPlaceAnywhere reports whether any orientation of the shape fits
// anywhere on the board
func (s *Service) CanPlaceAnywhere(board model.Board, shape model.Shape) bool {
	size := board.Size()
	for _, o := range Orientations(shape) {
		for row := -o.Rows() + 1; row < size; row++ {
			for col := -o.Cols() + 1; col < size; col++ {
				if s.CanPlace(board, o, model.Position{Row: row, Col: col}) {
					return true
				}
			}
		}
	}
	return false
}

// Orientations returns the distinct rotations and reflections of a shape
func Orientations(shape model.Shape) []model.Shape {
	var out []model.Shape
	current := shape.Normalize()
	for _, base := range []model.Shape{current, current.Mirror()} {
		o := base
		for i := 0; i < 4; i++ {
			if !containsShape(out, o) {
				out = append(out, o)
			}
			o = o.RotateClockwise()
		}
	}
	return out
}

// IsOrientationOf reports whether candidate is a rotation or reflection of shape
func IsOrientationOf(shape, candidate model.Shape) bool {
	return containsShape(Orientations(shape), candidate)
}

func containsShape(shapes []model.Shape, shape model.Shape) bool {
	for _, s := range shapes {
		if s.Equal(shape) {
			return true
		}
	}
	return false
}

// Interface for dependency injection
type ServiceInterface interface {
	Place(board model.Board, pick *model.Card, req model.PlayRequest) (model.Board, error)
	PlaceShape(board model.Board, picked, oriented model.Shape, color model.SquareColor, anchor model.Position) (model.Board, error)
	PlaceSingle(board model.Board, picked model.Shape, color model.SquareColor, pos model.Position) (model.Board, error)
	CanPlace(board model.Board, shape model.Shape, anchor model.Position) bool
	CanPlaceAnywhere(board model.Board, shape model.Shape) bool
}

var _ ServiceInterface = (*Service)(nil)
