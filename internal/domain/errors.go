package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrUnknownGearKind    = errors.New("unknown gear kind")
	ErrUnknownCase        = errors.New("unknown case")
	ErrUnknownAction      = errors.New("unknown action")
	ErrInvalidRewardTable = errors.New("invalid reward table")
	ErrCooldown           = errors.New("action on cooldown")
	ErrMaxLevel           = errors.New("gear already at max level")
	ErrSelfTransfer       = errors.New("cannot transfer to yourself")

	ErrUnknownGameKind   = errors.New("unknown game kind")
	ErrSameParticipant   = errors.New("participants must be distinct")
	ErrNotAParticipant   = errors.New("not a participant")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionResolved   = errors.New("session already resolved")
	ErrSessionExists     = errors.New("session already running for these players")
	ErrInvalidGameAction = errors.New("invalid game action")
	ErrAlreadyActed      = errors.New("already acted")
)

// CooldownError reports a blocked cooldown-gated action and how long is left.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// FundsError is an InsufficientFunds rejection carrying the amount that was required.
type FundsError struct {
	Field     Field
	Required  int64
	Available int64
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("insufficient %s: required %d, available %d", e.Field, e.Required, e.Available)
}

func (e *FundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

var rejections = []error{
	ErrInsufficientFunds, ErrInvalidAmount, ErrUnknownField, ErrUnknownCurrency,
	ErrUnknownGearKind, ErrUnknownCase, ErrUnknownAction, ErrCooldown, ErrMaxLevel,
	ErrSelfTransfer, ErrUnknownGameKind, ErrSameParticipant, ErrNotAParticipant,
	ErrSessionNotFound, ErrSessionExpired, ErrSessionResolved, ErrSessionExists,
	ErrInvalidGameAction, ErrAlreadyActed,
}

// IsRejection reports whether err is an expected business outcome rather than
// an infrastructure failure. Configuration errors such as an invalid reward
// table are not rejections.
func IsRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
