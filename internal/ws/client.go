package ws

import (
	"context"
	"encoding/json"
	"time"

	"mine_economy/internal/game"
	"mine_economy/internal/http/httperr"
	"mine_economy/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	submitTimeout  = 5 * time.Second
)

// Client bridges one websocket connection to one game session: actions read
// from the socket are submitted to the registry and every snapshot the
// registry publishes is written back.
type Client struct {
	UserID    int64
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte

	sessions Sessions
	updates  <-chan game.Snapshot
	cancel   func()
	done     chan struct{}
}

func NewClient(userID int64, sessionID string, conn *websocket.Conn, sessions Sessions, updates <-chan game.Snapshot, cancel func()) *Client {
	return &Client{
		UserID:    userID,
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		sessions:  sessions,
		updates:   updates,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Run blocks until the connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

//read
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.cancel()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "session_id", c.SessionID, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg []byte) {
	var in Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		c.queue(Outbound{Type: MsgError, Error: map[string]any{"error": "malformed message", "code": "bad_request"}})
		return
	}

	switch in.Type {
	case MsgPing:
		c.queue(Outbound{Type: MsgPong})
	case MsgAction:
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		// the resulting snapshot arrives through the subscription
		if _, err := c.sessions.Submit(ctx, c.SessionID, c.UserID, game.Action(in.Action)); err != nil {
			c.queue(Outbound{Type: MsgError, Error: httperr.Body(err)})
		}
	default:
		c.queue(Outbound{Type: MsgError, Error: map[string]any{"error": "unknown message type", "code": "bad_request"}})
	}
}

func (c *Client) queue(out Outbound) {
	b, err := json.Marshal(out)
	if err != nil {
		logger.Error("ws marshal failed", "error", err)
		return
	}
	select {
	case c.Send <- b:
	case <-c.done:
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.updates:
			if !ok {
				// session removed from the registry
				_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			b, err := json.Marshal(Outbound{Type: MsgState, Session: &snap})
			if err != nil {
				logger.Error("ws marshal failed", "session_id", c.SessionID, "error", err)
				continue
			}
			if !c.write(websocket.TextMessage, b) {
				return
			}

		case msg := <-c.Send:
			if !c.write(websocket.TextMessage, msg) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(kind int, msg []byte) bool {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteMessage(kind, msg); err != nil {
		logger.Debug("ws write error", "user_id", c.UserID, "error", err)
		return false
	}
	return true
}
