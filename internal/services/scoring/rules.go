package scoring

import (
	"fmt"

	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/regions"
)

// Evaluation is the input of one rule: a board and the scoring pass it belongs to
type Evaluation struct {
	Board    model.Board
	Pass     string
	analyzer *regions.Analyzer
}

// Regions returns the pass-memoized regions for a color (Blank = all regions)
func (e Evaluation) Regions(filter model.SquareColor) regions.Regions {
	if e.analyzer == nil {
		return regions.Extract(e.Board, filter)
	}
	return e.analyzer.Regions(e.Board, e.Pass, filter)
}

// Rule is a pure board evaluation carried by a score card
type Rule struct {
	Label string
	Eval  func(e Evaluation) int
}

var colorNames = map[model.SquareColor]string{
	model.Red:   "red",
	model.Blue:  "blue",
	model.Green: "green",
}

// Rules returns the score rule catalog in its canonical order.
// Every rule is non-negative except "21 minus largest empty region",
// which goes below zero once the largest empty region exceeds 21 tiles.
func Rules() []Rule {
	var rules []Rule

	perColor := func(label string, eval func(e Evaluation, c model.SquareColor) int) {
		for _, c := range model.PlaceableColors {
			rules = append(rules, Rule{
				Label: fmt.Sprintf(label, colorNames[c]),
				Eval:  func(e Evaluation) int { return eval(e, c) },
			})
		}
	}

	perColor("6 point for each tile in the side length of the largest %s square region", func(e Evaluation, c model.SquareColor) int {
		return regions.LargestSquare(e.Board, c) * 6
	})
	perColor("1 point for each tile in the largest %s region", func(e Evaluation, c model.SquareColor) int {
		return e.Regions(c).Largest(c, 0)
	})
	perColor("10 points for each %s region of 6 or more tiles", func(e Evaluation, c model.SquareColor) int {
		count := 0
		for _, size := range e.Regions(c).Of(c) {
			if size >= 6 {
				count++
			}
		}
		return count * 10
	})
	perColor("1 point for each %s tile on the edge of the board", func(e Evaluation, c model.SquareColor) int {
		return edgeCount(e.Board, c)
	})
	perColor("3 points for each tile in the second largest %s region", func(e Evaluation, c model.SquareColor) int {
		return e.Regions(c).Largest(c, 1) * 3
	})

	rules = append(rules,
		Rule{
			Label: "4 points for each filled column",
			Eval: func(e Evaluation) int {
				return countLines(e.Board, false, isFilled) * 4
			},
		},
		Rule{
			Label: "4 points for each filled row",
			Eval: func(e Evaluation) int {
				return countLines(e.Board, true, isFilled) * 4
			},
		},
		Rule{
			Label: "8 points for each filled diagonal",
			Eval: func(e Evaluation) int {
				score := 0
				for _, diag := range diagonals(e.Board) {
					if isFilled(diag) {
						score += 8
					}
				}
				return score
			},
		},
		Rule{
			Label: "2 points for each empty region",
			Eval: func(e Evaluation) int {
				return len(e.Regions(model.Blank).Blank) * 2
			},
		},
		Rule{
			Label: "6 points for each tile in your second largest empty region",
			Eval: func(e Evaluation) int {
				return e.Regions(model.Blank).Largest(model.Blank, 1) * 6
			},
		},
		Rule{
			Label: "21 points minus the number of tiles in your largest empty region",
			Eval: func(e Evaluation) int {
				return 21 - e.Regions(model.Blank).Largest(model.Blank, 0)
			},
		},
		Rule{
			Label: "12 points if every corner is filled",
			Eval: func(e Evaluation) int {
				n := e.Board.Size() - 1
				if n < 0 {
					return 0
				}
				for _, pos := range []model.Position{{Row: 0, Col: 0}, {Row: 0, Col: n}, {Row: n, Col: 0}, {Row: n, Col: n}} {
					if e.Board.Get(pos) == model.Blank {
						return 0
					}
				}
				return 12
			},
		},
		Rule{
			Label: "15 points if you have an empty row",
			Eval: func(e Evaluation) int {
				if countLines(e.Board, true, isEmpty) > 0 {
					return 15
				}
				return 0
			},
		},
		Rule{
			Label: "15 points if you have an empty column",
			Eval: func(e Evaluation) int {
				if countLines(e.Board, false, isEmpty) > 0 {
					return 15
				}
				return 0
			},
		},
		Rule{
			Label: "15 points if you have no fully filled 3x3",
			Eval: func(e Evaluation) int {
				if hasFilledSquare(e.Board, 3) {
					return 0
				}
				return 15
			},
		},
	)

	perColor("2 points for each row or column that contains least 3 %s tiles", func(e Evaluation, c model.SquareColor) int {
		atLeastThree := func(line []model.SquareColor) bool {
			return countColor(line, c) >= 3
		}
		return (countLines(e.Board, true, atLeastThree) + countLines(e.Board, false, atLeastThree)) * 2
	})

	rules = append(rules, Rule{
		Label: "get 10 points!! :D",
		Eval:  func(Evaluation) int { return 10 },
	})

	perColor("3 points for each tile in the longest %s line (includes diagonals)", func(e Evaluation, c model.SquareColor) int {
		return regions.LongestLine(e.Board, c) * 3
	})

	rules = append(rules,
		Rule{
			Label: "18 points if you have no fully filled row",
			Eval: func(e Evaluation) int {
				if countLines(e.Board, true, isFilled) > 0 {
					return 0
				}
				return 18
			},
		},
		Rule{
			Label: "18 points if you have no fully filled column",
			Eval: func(e Evaluation) int {
				if countLines(e.Board, false, isFilled) > 0 {
					return 0
				}
				return 18
			},
		},
	)

	return rules
}

func edgeCount(board model.Board, color model.SquareColor) int {
	n := board.Size()
	count := 0
	for i := 0; i < n; i++ {
		for _, pos := range []model.Position{{Row: 0, Col: i}, {Row: n - 1, Col: i}, {Row: i, Col: 0}, {Row: i, Col: n - 1}} {
			if board.Get(pos) == color {
				count++
			}
		}
	}
	return count
}

// countLines counts rows (or columns) matching pred
func countLines(board model.Board, rows bool, pred func([]model.SquareColor) bool) int {
	count := 0
	for i := 0; i < board.Size(); i++ {
		line := make([]model.SquareColor, board.Size())
		for j := range line {
			if rows {
				line[j] = board[i][j]
			} else {
				line[j] = board[j][i]
			}
		}
		if pred(line) {
			count++
		}
	}
	return count
}

func diagonals(board model.Board) [][]model.SquareColor {
	n := board.Size()
	main := make([]model.SquareColor, n)
	anti := make([]model.SquareColor, n)
	for i := 0; i < n; i++ {
		main[i] = board[i][i]
		anti[i] = board[i][n-1-i]
	}
	return [][]model.SquareColor{main, anti}
}

func isFilled(line []model.SquareColor) bool {
	return countColor(line, model.Blank) == 0
}

func isEmpty(line []model.SquareColor) bool {
	return countColor(line, model.Blank) == len(line)
}

func countColor(line []model.SquareColor, color model.SquareColor) int {
	count := 0
	for _, c := range line {
		if c == color {
			count++
		}
	}
	return count
}

func hasFilledSquare(board model.Board, side int) bool {
	n := board.Size()
	for row := 0; row+side <= n; row++ {
		for col := 0; col+side <= n; col++ {
			filled := true
			for i := 0; i < side && filled; i++ {
				for j := 0; j < side; j++ {
					if board[row+i][col+j] == model.Blank {
						filled = false
						break
					}
				}
			}
			if filled {
				return true
			}
		}
	}
	return false
}
