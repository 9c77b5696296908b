package game

import (
	"fmt"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/reward"
)

const (
	Hit   Action = "hit"
	Stand Action = "stand"

	blackjack = 21
)

// deck is drawn with replacement. Face cards make 10 four times as likely as
// any other value; 11 is an ace.
var deck = [13]int{2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10, 10, 11}

// HandValue sums a hand, counting aces as 1 one at a time while the total
// is over 21.
func HandValue(cards []int) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c
		if c == 11 {
			aces++
		}
	}
	for total > blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

type hand struct {
	Cards  []int `json:"cards"`
	Total  int   `json:"total"`
	Stood  bool  `json:"stood"`
	Busted bool  `json:"busted"`
}

func (h *hand) add(card int) {
	h.Cards = append(h.Cards, card)
	h.Total = HandValue(h.Cards)
	h.Busted = h.Total > blackjack
}

func (h *hand) done() bool { return h.Stood || h.Busted }

// BlackjackGame is a two-player card duel. Both players act independently;
// a bust ends the game at once.
type BlackjackGame struct {
	basePlayers
	stake   int64
	timeout time.Duration
	src     reward.Source
	hands   [2]*hand
	status  Status
}

func NewBlackjackGame(players [2]int64, stake int64, timeout time.Duration, src reward.Source) *BlackjackGame {
	return &BlackjackGame{
		basePlayers: basePlayers{players: players},
		stake:       stake,
		timeout:     timeout,
		src:         src,
		hands:       [2]*hand{{}, {}},
		status:      StatusPlayerTurns,
	}
}

func (g *BlackjackGame) Kind() Kind { return KindBlackjack }
func (g *BlackjackGame) Stake() int64 { return g.stake }
func (g *BlackjackGame) Timeout() time.Duration { return g.timeout }
func (g *BlackjackGame) ResetsOnMove() bool { return true }
func (g *BlackjackGame) Status() Status { return g.status }

func (g *BlackjackGame) draw() int {
	return deck[g.src.Int64N(int64(len(deck)))]
}

// Start deals two cards each. A natural 21 settles the game immediately.
func (g *BlackjackGame) Start() *Outcome {
	for round := 0; round < 2; round++ {
		for _, h := range g.hands {
			h.add(g.draw())
		}
	}

	natural0 := g.hands[0].Total == blackjack
	natural1 := g.hands[1].Total == blackjack
	switch {
	case natural0 && natural1:
		g.status = StatusResolved
		return push(StatusResolved, "natural_push", g.details())
	case natural0:
		g.status = StatusResolved
		return decided(g.players, 0, "natural", g.details())
	case natural1:
		g.status = StatusResolved
		return decided(g.players, 1, "natural", g.details())
	}
	return nil
}

func (g *BlackjackGame) Handle(playerID int64, action Action) (*Outcome, error) {
	i := g.index(playerID)
	if i < 0 {
		return nil, domain.ErrNotAParticipant
	}
	if g.status.Terminal() {
		return nil, domain.ErrSessionResolved
	}
	if action != Hit && action != Stand {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGameAction, action)
	}
	h := g.hands[i]
	if h.done() {
		return nil, domain.ErrAlreadyActed
	}

	if action == Stand {
		h.Stood = true
	} else {
		h.add(g.draw())
		if h.Busted {
			g.status = StatusResolved
			return decided(g.players, 1-i, "bust", g.details()), nil
		}
	}

	if !g.hands[0].done() || !g.hands[1].done() {
		return nil, nil
	}

	g.status = StatusResolved
	t0, t1 := g.hands[0].Total, g.hands[1].Total
	switch {
	case t0 > t1:
		return decided(g.players, 0, "higher_total", g.details()), nil
	case t1 > t0:
		return decided(g.players, 1, "higher_total", g.details()), nil
	default:
		return push(StatusResolved, "equal_totals", g.details()), nil
	}
}

// Expire ends the game as a push: nobody is forced into a default move.
func (g *BlackjackGame) Expire() *Outcome {
	g.status = StatusAbandoned
	return push(StatusAbandoned, "timeout", g.details())
}

func (g *BlackjackGame) State() interface{} {
	return g.details()
}

func (g *BlackjackGame) details() map[string]interface{} {
	hands := make(map[string]hand, 2)
	for i, h := range g.hands {
		cp := *h
		cp.Cards = append([]int(nil), h.Cards...)
		hands[fmt.Sprint(g.players[i])] = cp
	}
	return map[string]interface{}{"hands": hands}
}
