package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/flippo/internal/api/apierr"
	"github.com/mcoot/flippo/internal/api/response"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
	"github.com/mcoot/flippo/internal/ws"
)

var errNoPick = errors.New("no card picked this turn")

func newConnectCmd() *cobra.Command {
	var (
		name   string
		linger time.Duration
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "connect <lobby>",
		Short: "Join a lobby as a player",
		Long: `Join a lobby over the websocket protocol and play from stdin.

Commands, one per line:
  name <name>                 set your display name
  ready | unready             toggle readiness in the lobby
  pick <index|card id>        pick a card from your hand
  play <x> <y> [rotate N] [mirror]
                              place the picked tetrino with its top-left at column x, row y
  fill <x> <y> <red|blue|green>
                              place a single cell when the picked shape fits nowhere
  restart                     return an ended game to the lobby
  state                       request a fresh state

Received events are printed as they arrive. The connection closes
once stdin is exhausted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runSession(ctx, sessionOptions{
				lobbyID: args[0],
				name:    name,
				linger:  linger,
				saveIAm: !noSave,
				in:      cmd.InOrStdin(),
				out:     &Output{format: cfg.Output, w: cmd.OutOrStdout()},
				errOut:  cmd.ErrOrStderr(),
				verbose: cfg.Verbose,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name to set after joining")
	cmd.Flags().DurationVar(&linger, "linger", 500*time.Millisecond, "How long to keep listening after stdin closes")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the reconnection token")

	return cmd
}

type sessionOptions struct {
	lobbyID string
	name    string
	linger  time.Duration
	saveIAm bool
	in      io.Reader
	out     *Output
	errOut  io.Writer
	verbose bool
}

// session tracks the latest private state so commands can refer to the hand
type session struct {
	mu sync.Mutex
	me *response.PrivatePlayer
}

func (s *session) player() *response.PrivatePlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.me
}

func (s *session) setPlayer(p *response.PrivatePlayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.me = p
}

func runSession(ctx context.Context, opts sessionOptions) error {
	query := url.Values{}
	query.Set("lobby", opts.lobbyID)
	if cfg.Token != "" {
		query.Set("iam", cfg.Token)
	}
	wsURL, err := client.WebSocketURL("/api/ws", query)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			var errResp apierr.ErrorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error.Code != "" {
				return fmt.Errorf("%s (%s)", errResp.Error.Message, errResp.Error.Code)
			}
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if opts.verbose {
		fmt.Fprintf(opts.errOut, "Connected to %s\n", wsURL)
	}

	sess := &session{}
	readErr := make(chan error, 1)
	go func() {
		readErr <- readEvents(conn, sess, opts)
	}()

	if opts.name != "" {
		if err := writeFrame(conn, string(model.MessageSetName), opts.name); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(opts.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closeSession(conn, readErr, 0)
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return closeSession(conn, readErr, opts.linger)
			}
			event, payload, err := parseCommand(line, sess.player())
			if err != nil {
				fmt.Fprintf(opts.errOut, "Error: %s\n", err)
				continue
			}
			if event == "" {
				continue
			}
			if err := writeFrame(conn, event, payload); err != nil {
				return err
			}
		}
	}
}

// closeSession keeps reading for the linger period then closes cleanly
func closeSession(conn *websocket.Conn, readErr <-chan error, linger time.Duration) error {
	if linger > 0 {
		select {
		case err := <-readErr:
			return err
		case <-time.After(linger):
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	select {
	case <-readErr:
	case <-time.After(time.Second):
	}
	return nil
}

func writeFrame(conn *websocket.Conn, event string, payload any) error {
	data, err := ws.Encode(event, payload)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

func readEvents(conn *websocket.Conn, sess *session, opts sessionOptions) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				switch closeErr.Code {
				case websocket.CloseNormalClosure:
					return nil
				case game.CloseCodeGameStarted, game.CloseCodeReplaced:
					return fmt.Errorf("disconnected: %s", closeErr.Text)
				}
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var env ws.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if err := handleEvent(env, sess, opts); err != nil {
			fmt.Fprintf(opts.errOut, "Error: %s\n", err)
		}
	}
}

func handleEvent(env ws.Envelope, sess *session, opts sessionOptions) error {
	switch env.E {
	case ws.EventIAm:
		var token string
		if err := json.Unmarshal(env.D, &token); err != nil {
			return err
		}
		if opts.saveIAm && token != cfg.Token {
			if err := cfg.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
		}
	case ws.EventPlayerState:
		var me response.PrivatePlayer
		if err := json.Unmarshal(env.D, &me); err != nil {
			return err
		}
		sess.setPlayer(&me)
	}

	opts.out.PrintEvent(env)
	return nil
}

// PrintEvent outputs a websocket event, one line per event in json mode
func (o *Output) PrintEvent(env ws.Envelope) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"time":  time.Now().Format(time.RFC3339),
			"event": env.E,
			"data":  env.D,
		})
		fmt.Fprintln(o.w, string(data))
		return
	}

	switch env.E {
	case ws.EventIAm:
		fmt.Fprintln(o.w, "[iam] token received")
	case ws.EventLobbyState:
		var lobby response.Lobby
		if err := json.Unmarshal(env.D, &lobby); err != nil {
			return
		}
		fmt.Fprintln(o.w, "[lobby]")
		o.printLobby(lobby)
	case ws.EventPlayerState:
		var me response.PrivatePlayer
		if err := json.Unmarshal(env.D, &me); err != nil {
			return
		}
		fmt.Fprintln(o.w, "[player]")
		o.printPrivatePlayer(me)
	default:
		fmt.Fprintf(o.w, "[%s] %s\n", env.E, string(env.D))
	}
}

// parseCommand turns an input line into an outgoing event. An empty event
// means the line had nothing to send.
func parseCommand(line string, me *response.PrivatePlayer) (string, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "ready", "unready", "restart":
		return cmd, nil, nil
	case "state":
		return string(model.MessageGetState), nil, nil
	case "name":
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if name == "" {
			return "", nil, errors.New("usage: name <name>")
		}
		return string(model.MessageSetName), name, nil
	case "pick":
		if len(fields) != 2 {
			return "", nil, errors.New("usage: pick <index|card id>")
		}
		id, err := resolveCard(fields[1], me)
		if err != nil {
			return "", nil, err
		}
		return string(model.MessagePick), id, nil
	case "play":
		payload, err := parsePlay(fields[1:], me)
		if err != nil {
			return "", nil, err
		}
		return string(model.MessagePlay), payload, nil
	case "fill":
		payload, err := parseFill(fields[1:], me)
		if err != nil {
			return "", nil, err
		}
		return string(model.MessagePlay), payload, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func resolveCard(arg string, me *response.PrivatePlayer) (string, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return arg, nil
	}
	if me == nil || idx < 0 || idx >= len(me.Hand) {
		return "", fmt.Errorf("no card at index %d", idx)
	}
	return me.Hand[idx].ID, nil
}

func parsePlay(args []string, me *response.PrivatePlayer) (ws.PlayPayload, error) {
	if len(args) < 2 {
		return ws.PlayPayload{}, errors.New("usage: play <x> <y> [rotate N] [mirror]")
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return ws.PlayPayload{}, err
	}
	pick, err := currentPick(me)
	if err != nil {
		return ws.PlayPayload{}, err
	}

	shape := model.Shape(pick.Shape)
	rest := args[2:]
	for len(rest) > 0 {
		switch rest[0] {
		case "rotate":
			if len(rest) < 2 {
				return ws.PlayPayload{}, errors.New("rotate needs a count")
			}
			n, err := strconv.Atoi(rest[1])
			if err != nil || n < 0 {
				return ws.PlayPayload{}, fmt.Errorf("invalid rotation %q", rest[1])
			}
			for i := 0; i < n%4; i++ {
				shape = shape.RotateClockwise()
			}
			rest = rest[2:]
		case "mirror":
			shape = shape.Mirror()
			rest = rest[1:]
		default:
			return ws.PlayPayload{}, fmt.Errorf("unknown play option %q", rest[0])
		}
	}

	return ws.PlayPayload{
		X:    x,
		Y:    y,
		Card: ws.CardPayload{ID: pick.ID, Shape: shape},
	}, nil
}

func parseFill(args []string, me *response.PrivatePlayer) (ws.PlayPayload, error) {
	if len(args) != 3 {
		return ws.PlayPayload{}, errors.New("usage: fill <x> <y> <red|blue|green>")
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return ws.PlayPayload{}, err
	}
	color, err := parseColor(args[2])
	if err != nil {
		return ws.PlayPayload{}, err
	}
	pick, err := currentPick(me)
	if err != nil {
		return ws.PlayPayload{}, err
	}

	return ws.PlayPayload{
		X:     x,
		Y:     y,
		Card:  ws.CardPayload{ID: pick.ID, Color: int(color)},
		Is1x1: true,
	}, nil
}

func parseCoords(xs, ys string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y %q", ys)
	}
	return x, y, nil
}

func parseColor(s string) (model.SquareColor, error) {
	for _, c := range model.PlaceableColors {
		if strings.EqualFold(s, c.String()) || s == strconv.Itoa(int(c)) {
			return c, nil
		}
	}
	return model.Invalid, fmt.Errorf("invalid color %q", s)
}

func currentPick(me *response.PrivatePlayer) (*response.Card, error) {
	if me == nil || me.Turn.Pick == nil {
		return nil, errNoPick
	}
	if me.Turn.Pick.Type != string(model.CardTypeTetrino) {
		return nil, errors.New("picked card is not a tetrino")
	}
	return me.Turn.Pick, nil
}
