package game

import (
	"fmt"
	"time"

	"mine_economy/internal/domain"
)

const (
	Rock     Action = "rock"
	Paper    Action = "paper"
	Scissors Action = "scissors"
)

// rpsCycle lists the choices so that each one beats the next.
var rpsCycle = [3]Action{Rock, Scissors, Paper}

func rpsIndex(a Action) int {
	for i, c := range rpsCycle {
		if c == a {
			return i
		}
	}
	return -1
}

// beats reports whether a wins against b: b follows a in the cycle.
func beats(a, b Action) bool {
	return rpsCycle[(rpsIndex(a)+1)%len(rpsCycle)] == b
}

// RPSGame is a simultaneous-choice game. Each player picks once; the session
// resolves when both picks are in.
type RPSGame struct {
	basePlayers
	stake   int64
	timeout time.Duration
	choices [2]Action
	status  Status
}

func NewRPSGame(players [2]int64, stake int64, timeout time.Duration) *RPSGame {
	return &RPSGame{
		basePlayers: basePlayers{players: players},
		stake:       stake,
		timeout:     timeout,
		status:      StatusAwaitingChoices,
	}
}

func (g *RPSGame) Kind() Kind { return KindRPS }
func (g *RPSGame) Stake() int64 { return g.stake }
func (g *RPSGame) Timeout() time.Duration { return g.timeout }
func (g *RPSGame) ResetsOnMove() bool { return false }
func (g *RPSGame) Status() Status { return g.status }
func (g *RPSGame) Start() *Outcome { return nil }

func (g *RPSGame) Handle(playerID int64, action Action) (*Outcome, error) {
	i := g.index(playerID)
	if i < 0 {
		return nil, domain.ErrNotAParticipant
	}
	if g.status.Terminal() {
		return nil, domain.ErrSessionResolved
	}
	if rpsIndex(action) < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGameAction, action)
	}
	if g.choices[i] != "" {
		return nil, domain.ErrAlreadyActed
	}
	g.choices[i] = action

	if g.choices[0] == "" || g.choices[1] == "" {
		return nil, nil
	}

	g.status = StatusResolved
	details := g.choiceDetails()
	switch {
	case g.choices[0] == g.choices[1]:
		return push(StatusResolved, "tie", details), nil
	case beats(g.choices[0], g.choices[1]):
		return decided(g.players, 0, "choice", details), nil
	default:
		return decided(g.players, 1, "choice", details), nil
	}
}

func (g *RPSGame) Expire() *Outcome {
	g.status = StatusAbandoned
	return push(StatusAbandoned, "timeout", map[string]interface{}{"chosen": g.chosen()})
}

func (g *RPSGame) State() interface{} {
	state := map[string]interface{}{
		"chosen": g.chosen(),
	}
	if g.status == StatusResolved {
		state["choices"] = g.choiceDetails()["choices"]
	}
	return state
}

func (g *RPSGame) chosen() map[string]bool {
	return map[string]bool{
		fmt.Sprint(g.players[0]): g.choices[0] != "",
		fmt.Sprint(g.players[1]): g.choices[1] != "",
	}
}

func (g *RPSGame) choiceDetails() map[string]interface{} {
	return map[string]interface{}{
		"choices": map[string]Action{
			fmt.Sprint(g.players[0]): g.choices[0],
			fmt.Sprint(g.players[1]): g.choices[1],
		},
	}
}
