package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/flippo/internal/api/response"
	"github.com/mcoot/flippo/internal/model"
	"github.com/mcoot/flippo/internal/services/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection attached to a seat
type Client struct {
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
	logger      *slog.Logger

	mu        sync.Mutex
	playerID  model.PlayerID
	closeCode int
	closeText string
}

// Ensure Client implements game.Conn
var _ game.Conn = (*Client)(nil)

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
		logger:      logger,
		closeCode:   websocket.CloseNormalClosure,
	}
}

// PlayerID returns the seat this client is attached to, if any
func (c *Client) PlayerID() model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Client) setPlayerID(id model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

// SendPlayerState queues the private player view for this connection
func (c *Client) SendPlayerState(state model.PlayerSnapshot) {
	c.sendEvent(EventPlayerState, response.PrivatePlayerFromModel(state))
}

// Close ends the connection with the given close code once queued
// frames have been flushed
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.closeText = reason
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) sendEvent(event string, payload any) {
	msg, err := Encode(event, payload)
	if err != nil {
		c.logger.Error("failed to encode event", slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	c.enqueue(msg)
}

// enqueue queues a frame without blocking, reporting whether it was accepted
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("ws message dropped - client buffer full",
			slog.String("player_id", string(c.PlayerID())))
		return false
	}
}

// readPump delivers inbound frames to handle until the peer goes away
func (c *Client) readPump(handle func(data []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug("ws read error", slog.String("error", err.Error()))
			}
			return
		}
		handle(data)
	}
}

// writePump writes queued frames and keepalive pings until the client
// is closed, then sends the close frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.flush()
			c.mu.Lock()
			frame := websocket.FormatCloseMessage(c.closeCode, c.closeText)
			c.mu.Unlock()
			_ = c.write(websocket.CloseMessage, frame)
			return
		}
	}
}

// flush writes whatever is still queued
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
