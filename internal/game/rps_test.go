package game

import (
	"errors"
	"testing"
	"time"

	"mine_economy/internal/domain"
)

func TestBeatsIsCyclic(t *testing.T) {
	t.Parallel()
	wins := map[Action]Action{Rock: Scissors, Scissors: Paper, Paper: Rock}
	for a, b := range wins {
		if !beats(a, b) {
			t.Fatalf("beats(%s, %s) = false, want true", a, b)
		}
		if beats(b, a) {
			t.Fatalf("beats(%s, %s) = true, want false", b, a)
		}
		if beats(a, a) {
			t.Fatalf("beats(%s, %s) = true, want false", a, a)
		}
	}
}

func TestRPSResolution(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		a, b   Action
		winner int64
		push   bool
	}{
		{name: "first wins", a: Rock, b: Scissors, winner: 1},
		{name: "second wins", a: Rock, b: Paper, winner: 2},
		{name: "tie", a: Paper, b: Paper, push: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewRPSGame([2]int64{1, 2}, 0, 30*time.Second)
			out, err := g.Handle(1, tt.a)
			if err != nil || out != nil {
				t.Fatalf("first choice = %v, %v; want pending", out, err)
			}
			if g.Status() != StatusAwaitingChoices {
				t.Fatalf("status = %s, want %s", g.Status(), StatusAwaitingChoices)
			}
			out, err = g.Handle(2, tt.b)
			if err != nil {
				t.Fatalf("second choice: %v", err)
			}
			if out == nil || out.Status != StatusResolved {
				t.Fatalf("outcome = %+v, want resolved", out)
			}
			if out.Push != tt.push {
				t.Fatalf("push = %v, want %v", out.Push, tt.push)
			}
			if !tt.push && *out.WinnerID != tt.winner {
				t.Fatalf("winner = %d, want %d", *out.WinnerID, tt.winner)
			}
		})
	}
}

func TestRPSRejectsBadInput(t *testing.T) {
	t.Parallel()
	g := NewRPSGame([2]int64{1, 2}, 0, 30*time.Second)

	if _, err := g.Handle(1, "lizard"); !errors.Is(err, domain.ErrInvalidGameAction) {
		t.Fatalf("err = %v, want ErrInvalidGameAction", err)
	}
	if _, err := g.Handle(3, Rock); !errors.Is(err, domain.ErrNotAParticipant) {
		t.Fatalf("err = %v, want ErrNotAParticipant", err)
	}
	if _, err := g.Handle(1, Rock); err != nil {
		t.Fatalf("choice: %v", err)
	}
	if _, err := g.Handle(1, Paper); !errors.Is(err, domain.ErrAlreadyActed) {
		t.Fatalf("err = %v, want ErrAlreadyActed", err)
	}
}

func TestRPSStateHidesChoicesUntilResolved(t *testing.T) {
	t.Parallel()
	g := NewRPSGame([2]int64{1, 2}, 0, 30*time.Second)
	_, _ = g.Handle(1, Rock)

	state := g.State().(map[string]interface{})
	if _, ok := state["choices"]; ok {
		t.Fatalf("state = %v, want no choices before resolution", state)
	}
	chosen := state["chosen"].(map[string]bool)
	if !chosen["1"] || chosen["2"] {
		t.Fatalf("chosen = %v, want only player 1", chosen)
	}

	out := g.Expire()
	if out.Status != StatusAbandoned || !out.Push {
		t.Fatalf("expire = %+v, want abandoned push", out)
	}
}
