package game

import (
	"fmt"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/reward"
)

// Factory builds games with the configured windows and randomness.
type Factory struct {
	ChoiceTimeout time.Duration
	TurnTimeout   time.Duration
	Source        reward.Source
}

func NewFactory(choiceTimeout, turnTimeout time.Duration, src reward.Source) *Factory {
	return &Factory{
		ChoiceTimeout: choiceTimeout,
		TurnTimeout:   turnTimeout,
		Source:        src,
	}
}

// CreateGame validates the stake for kind and returns a fresh game.
func (f *Factory) CreateGame(kind Kind, players [2]int64, stake int64) (Game, error) {
	if stake < 0 {
		return nil, fmt.Errorf("%w: stake %d", domain.ErrInvalidAmount, stake)
	}
	switch kind {
	case KindRPS:
		return NewRPSGame(players, stake, f.ChoiceTimeout), nil
	case KindBlackjack:
		if stake == 0 {
			return nil, fmt.Errorf("%w: blackjack needs a positive stake", domain.ErrInvalidAmount)
		}
		return NewBlackjackGame(players, stake, f.TurnTimeout, f.Source), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGameKind, kind)
	}
}
