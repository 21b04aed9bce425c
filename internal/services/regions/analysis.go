package regions

import (
	"sort"

	"github.com/mcoot/flippo/internal/model"
)

// Regions holds connected-component sizes per color, each sorted descending
type Regions struct {
	Red   []int
	Blue  []int
	Green []int
	Blank []int
}

// Of returns the component sizes for one color
func (r Regions) Of(color model.SquareColor) []int {
	switch color {
	case model.Red:
		return r.Red
	case model.Blue:
		return r.Blue
	case model.Green:
		return r.Green
	case model.Blank:
		return r.Blank
	default:
		return nil
	}
}

// Largest returns the nth largest region of a color (0-indexed), or 0
func (r Regions) Largest(color model.SquareColor, n int) int {
	sizes := r.Of(color)
	if n < 0 || n >= len(sizes) {
		return 0
	}
	return sizes[n]
}

// Total sums every recorded region size
func (r Regions) Total() int {
	total := 0
	for _, sizes := range [][]int{r.Red, r.Blue, r.Green, r.Blank} {
		for _, size := range sizes {
			total += size
		}
	}
	return total
}

// Extract partitions the board into maximal 4-connected single-color
// components. With filter set to a tile color only components of that
// color are collected; Blank collects every component of every color.
func Extract(board model.Board, filter model.SquareColor) Regions {
	var out Regions
	size := board.Size()
	visited := make([][]bool, size)
	for i := range visited {
		visited[i] = make([]bool, len(board[i]))
	}

	for row := 0; row < size; row++ {
		for col := 0; col < len(board[row]); col++ {
			if visited[row][col] {
				continue
			}
			color := board[row][col]
			if filter != model.Blank && color != filter {
				continue
			}
			n := floodFill(board, visited, model.Position{Row: row, Col: col})
			switch color {
			case model.Red:
				out.Red = append(out.Red, n)
			case model.Blue:
				out.Blue = append(out.Blue, n)
			case model.Green:
				out.Green = append(out.Green, n)
			default:
				out.Blank = append(out.Blank, n)
			}
		}
	}

	for _, sizes := range [][]int{out.Red, out.Blue, out.Green, out.Blank} {
		sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	}
	return out
}

var neighbours = []model.Position{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

// floodFill marks the component containing start and returns its size
func floodFill(board model.Board, visited [][]bool, start model.Position) int {
	color := board[start.Row][start.Col]
	stack := []model.Position{start}
	visited[start.Row][start.Col] = true
	count := 0
	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, d := range neighbours {
			next := model.Position{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
			if !board.IsValidPosition(next) || visited[next.Row][next.Col] {
				continue
			}
			if board[next.Row][next.Col] != color {
				continue
			}
			visited[next.Row][next.Col] = true
			stack = append(stack, next)
		}
	}
	return count
}

// LargestSquare returns the side of the largest solid square of the color,
// searching sides from board size - 1 down to 1. Returns 0 if none.
func LargestSquare(board model.Board, color model.SquareColor) int {
	size := board.Size()
	for side := size - 1; side >= 1; side-- {
		for row := 0; row+side <= size; row++ {
			for col := 0; col+side <= size; col++ {
				if isSolidSquare(board, color, row, col, side) {
					return side
				}
			}
		}
	}
	return 0
}

func isSolidSquare(board model.Board, color model.SquareColor, row, col, side int) bool {
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			if board[row+i][col+j] != color {
				return false
			}
		}
	}
	return true
}

// Direction pairs; lines are walked from the endpoint opposite each one
var lineDirections = []model.Position{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 1},
	{Row: 1, Col: -1},
}

// LongestLine returns the longest horizontal, vertical or diagonal run of the color
func LongestLine(board model.Board, color model.SquareColor) int {
	longest := 0
	for row := range board {
		for col := range board[row] {
			if board[row][col] != color {
				continue
			}
			for _, d := range lineDirections {
				prev := model.Position{Row: row - d.Row, Col: col - d.Col}
				if board.Get(prev) == color {
					continue
				}
				run := 0
				pos := model.Position{Row: row, Col: col}
				for board.Get(pos) == color {
					run++
					pos = model.Position{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
				}
				if run > longest {
					longest = run
				}
			}
		}
	}
	return longest
}
