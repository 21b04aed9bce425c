package model

// Shape is a polyomino mask: Shape[i][j] != 0 marks an occupied cell
type Shape [][]int

// Cells returns the offsets of every occupied cell, in row-major order
func (s Shape) Cells() []Position {
	var cells []Position
	for i, row := range s {
		for j, v := range row {
			if v != 0 {
				cells = append(cells, Position{Row: i, Col: j})
			}
		}
	}
	return cells
}

// Rows returns the shape height
func (s Shape) Rows() int {
	return len(s)
}

// Cols returns the widest row of the shape
func (s Shape) Cols() int {
	cols := 0
	for _, row := range s {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// Normalize returns a rectangular 0/1 copy of the shape
func (s Shape) Normalize() Shape {
	rows, cols := s.Rows(), s.Cols()
	out := make(Shape, rows)
	for i := range out {
		out[i] = make([]int, cols)
		for j := 0; j < len(s[i]); j++ {
			if s[i][j] != 0 {
				out[i][j] = 1
			}
		}
	}
	return out
}

// RotateClockwise returns the shape rotated a quarter turn clockwise
func (s Shape) RotateClockwise() Shape {
	n := s.Normalize()
	rows, cols := n.Rows(), n.Cols()
	out := make(Shape, cols)
	for i := range out {
		out[i] = make([]int, rows)
		for j := 0; j < rows; j++ {
			out[i][j] = n[rows-1-j][i]
		}
	}
	return out
}

// Mirror returns the shape flipped left to right
func (s Shape) Mirror() Shape {
	n := s.Normalize()
	for _, row := range n {
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
	return n
}

// Equal compares normalized shapes
func (s Shape) Equal(other Shape) bool {
	a, b := s.Normalize(), other.Normalize()
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// CardType distinguishes placeable tetrinos from score cards
type CardType string

const (
	CardTypeTetrino CardType = "tetrino"
	CardTypeScore   CardType = "score"
)

// CardID identifies a card. Tetrino ids are unique within a catalog
// generation, score card ids are stable for the whole process.
type CardID string

// Card is either a tetrino (Shape and Color set) or a score card (Label set)
type Card struct {
	Type  CardType
	ID    CardID
	Shape Shape
	Color SquareColor
	Label string
}

// IsTetrino returns true for placeable cards
func (c *Card) IsTetrino() bool {
	return c != nil && c.Type == CardTypeTetrino
}

// IsScore returns true for score cards
func (c *Card) IsScore() bool {
	return c != nil && c.Type == CardTypeScore
}
