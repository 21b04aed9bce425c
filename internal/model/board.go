package model

// SquareColor is the content of a single board cell
type SquareColor int

const (
	Invalid SquareColor = -1 // Only used for previewing illegal placements, never committed
	Blank   SquareColor = 0
	Red     SquareColor = 1
	Blue    SquareColor = 2
	Green   SquareColor = 3
)

// PlaceableColors are the colors a tetrino or 1x1 fill may carry
var PlaceableColors = []SquareColor{Red, Blue, Green}

// IsPlaceable reports whether the color is one of the real tile colors
func (c SquareColor) IsPlaceable() bool {
	return c >= Red && c <= Green
}

func (c SquareColor) String() string {
	switch c {
	case Blank:
		return "blank"
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Green:
		return "green"
	default:
		return "invalid"
	}
}

// Position identifies a cell on the board
type Position struct {
	Row int // 0-indexed from top (y)
	Col int // 0-indexed from left (x)
}

// Board is a square grid of colored cells, indexed Board[row][col]
type Board [][]SquareColor

// NewBoard creates an all-blank board of the given size
func NewBoard(size int) Board {
	b := make(Board, size)
	for i := range b {
		b[i] = make([]SquareColor, size)
	}
	return b
}

// Size returns the board dimension
func (b Board) Size() int {
	return len(b)
}

// IsValidPosition returns true if the position is within bounds
func (b Board) IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < len(b) && pos.Col >= 0 && pos.Col < len(b[pos.Row])
}

// Get returns the color at the given position, or Invalid if out of bounds
func (b Board) Get(pos Position) SquareColor {
	if !b.IsValidPosition(pos) {
		return Invalid
	}
	return b[pos.Row][pos.Col]
}

// IsFull returns true if no cell is blank
func (b Board) IsFull() bool {
	return b.FilledCount() == len(b)*len(b)
}

// FilledCount returns the number of non-blank cells
func (b Board) FilledCount() int {
	count := 0
	for _, row := range b {
		for _, cell := range row {
			if cell != Blank {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append([]SquareColor(nil), row...)
	}
	return out
}

// Equal reports whether both boards have identical cells
func (b Board) Equal(other Board) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if len(b[i]) != len(other[i]) {
			return false
		}
		for j := range b[i] {
			if b[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}
