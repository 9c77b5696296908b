// Package game implements the two-player wager games and the registry that
// owns live sessions.
package game

import (
	"fmt"
	"time"

	"mine_economy/internal/domain"
)

type Kind string

const (
	KindRPS       Kind = "rps"
	KindBlackjack Kind = "blackjack"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRPS, KindBlackjack:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownGameKind, s)
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusAwaitingChoices Status = "awaiting_choices"
	StatusPlayerTurns     Status = "player_turns"
	StatusResolved        Status = "resolved"
	StatusAbandoned       Status = "abandoned"
)

// Terminal reports whether no further actions are accepted.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusAbandoned
}

// Action is a participant move: a choice for rps, hit or stand for blackjack.
type Action string

// Outcome describes how a session ended. Push is set when no gold moves.
type Outcome struct {
	Status   Status                 `json:"status"`
	WinnerID *int64                 `json:"winner_id,omitempty"`
	LoserID  *int64                 `json:"loser_id,omitempty"`
	Push     bool                   `json:"push"`
	Reason   string                 `json:"reason"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Game is a session state machine. Implementations are not safe for
// concurrent use; the registry serializes access per session.
type Game interface {
	Kind() Kind
	Players() [2]int64
	Stake() int64

	// Timeout is the window for the next action.
	Timeout() time.Duration
	// ResetsOnMove reports whether each accepted action restarts the window.
	ResetsOnMove() bool

	// Start runs the opening step and returns an outcome when the game is
	// decided before any action.
	Start() *Outcome
	// Handle applies an action and returns an outcome once the game is decided.
	Handle(playerID int64, action Action) (*Outcome, error)
	// Expire ends the game because its window passed.
	Expire() *Outcome

	Status() Status
	// State is the public view of the game, safe to send to both players.
	State() interface{}
}

type basePlayers struct {
	players [2]int64
}

func (g basePlayers) Players() [2]int64 { return g.players }

func (g basePlayers) index(playerID int64) int {
	switch playerID {
	case g.players[0]:
		return 0
	case g.players[1]:
		return 1
	}
	return -1
}

func decided(players [2]int64, winner int, reason string, details map[string]interface{}) *Outcome {
	w, l := players[winner], players[1-winner]
	return &Outcome{
		Status:   StatusResolved,
		WinnerID: &w,
		LoserID:  &l,
		Reason:   reason,
		Details:  details,
	}
}

func push(status Status, reason string, details map[string]interface{}) *Outcome {
	return &Outcome{Status: status, Push: true, Reason: reason, Details: details}
}
