package ws

import (
	"context"

	"mine_economy/internal/game"
)

const (
	// client - server
	MsgAction = "action"
	MsgPing   = "ping"

	// server - client
	MsgState = "state"
	MsgError = "error"
	MsgPong  = "pong"
)

// Sessions is the part of the game registry a connection needs.
type Sessions interface {
	Subscribe(handle string, userID int64) (<-chan game.Snapshot, func(), error)
	Submit(ctx context.Context, handle string, userID int64, action game.Action) (game.Snapshot, error)
}

// client → server
type Inbound struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"` // rock | paper | scissors | hit | stand
}

// server → client
type Outbound struct {
	Type    string         `json:"type"`
	Session *game.Snapshot `json:"session,omitempty"`
	Error   map[string]any `json:"error,omitempty"`
}
