package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mcoot/flippo/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Lobby:
		o.printLobby(v)
	case response.PrivatePlayer:
		o.printPrivatePlayer(v)
	case response.LobbyHistory:
		o.printHistory(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printLobby(l response.Lobby) {
	fmt.Fprintf(o.w, "Lobby: %s\n", l.ID)
	fmt.Fprintf(o.w, "State: %s\n", l.State)
	if l.Turn > 0 {
		fmt.Fprintf(o.w, "Turn: %d\n", l.Turn)
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		var flags []string
		if p.Ready {
			flags = append(flags, "ready")
		}
		if !p.Connected {
			flags = append(flags, "away")
		}
		if p.Turn.Pick != nil {
			flags = append(flags, "picked")
		}
		flagStr := ""
		if len(flags) > 0 {
			flagStr = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s) %d pts%s\n", displayName(p), p.ID, p.Score, flagStr)
	}
}

func (o *Output) printPrivatePlayer(p response.PrivatePlayer) {
	fmt.Fprintf(o.w, "You: %s (%s)\n", displayName(p.Player), p.ID)
	fmt.Fprintf(o.w, "Score: %d\n", p.Score)
	o.printBoard(p.Board)

	if len(p.Hand) > 0 {
		fmt.Fprintln(o.w, "Hand:")
		for i, c := range p.Hand {
			fmt.Fprintf(o.w, "  %d) %s\n", i, describeCard(c))
		}
	}

	if p.Turn.Pick != nil {
		fmt.Fprintf(o.w, "Picked: %s\n", describeCard(*p.Turn.Pick))
	}

	if len(p.ScoreRules) > 0 {
		labels := make([]string, 0, len(p.ScoreRules))
		for label := range p.ScoreRules {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintln(o.w, "Scoring:")
		for _, label := range labels {
			fmt.Fprintf(o.w, "  %+d  %s\n", p.ScoreRules[label], label)
		}
	}
}

func (o *Output) printHistory(h response.LobbyHistory) {
	fmt.Fprintf(o.w, "Lobby: %s\n", h.LobbyID)
	if len(h.Games) == 0 {
		fmt.Fprintln(o.w, "No completed games")
		return
	}
	for i, g := range h.Games {
		fmt.Fprintf(o.w, "Game %d (%s, %d turns):\n", i+1, g.CompletedAt.Format("2006-01-02 15:04"), g.Turns)
		for _, r := range g.Results {
			winner := ""
			if r.Winner {
				winner = " *"
			}
			name := r.Name
			if name == "" {
				name = r.PlayerID
			}
			fmt.Fprintf(o.w, "  %s: %d%s\n", name, r.Score, winner)
		}
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Lobbies: %d\n", h.Lobbies)
}

func (o *Output) printBoard(board [][]int) {
	if len(board) == 0 {
		return
	}

	size := len(board)

	// Column headers
	fmt.Fprint(o.w, "    ")
	for col := 0; col < size; col++ {
		fmt.Fprintf(o.w, "%2d", col)
	}
	fmt.Fprintln(o.w)

	for row := 0; row < size; row++ {
		fmt.Fprintf(o.w, " %2d ", row)
		for col := 0; col < size; col++ {
			fmt.Fprintf(o.w, " %c", colorRune(board[row][col]))
		}
		fmt.Fprintln(o.w)
	}
}

func colorRune(c int) rune {
	switch c {
	case 1:
		return 'R'
	case 2:
		return 'B'
	case 3:
		return 'G'
	default:
		return '.'
	}
}

func describeCard(c response.Card) string {
	if c.Type == "score" {
		return "score: " + c.Label
	}
	rows := make([]string, len(c.Shape))
	for i, row := range c.Shape {
		var sb strings.Builder
		for _, cell := range row {
			if cell != 0 {
				sb.WriteRune(colorRune(c.Color))
			} else {
				sb.WriteRune('.')
			}
		}
		rows[i] = sb.String()
	}
	return fmt.Sprintf("tetrino %s [%s]", c.ID, strings.Join(rows, "/"))
}

func displayName(p response.Player) string {
	if p.Name == "" {
		return "(unnamed)"
	}
	return p.Name
}
