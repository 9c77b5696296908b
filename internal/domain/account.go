package domain

import (
	"fmt"
	"strings"
	"time"
)

// Account is the persistent balance and timestamp record of one user.
// Accounts are created lazily on first touch and never deleted.
type Account struct {
	UserID       int64      `db:"user_id" json:"user_id"`
	XP           int64      `db:"xp" json:"xp"`
	Gold         int64      `db:"gold" json:"gold"`
	Crystals     int64      `db:"crystals" json:"crystals"`
	DailyStreak  int        `db:"daily_streak" json:"daily_streak"`
	LastMineAt   *time.Time `db:"last_mine_at" json:"last_mine_at,omitempty"`
	LastWorkAt   *time.Time `db:"last_work_at" json:"last_work_at,omitempty"`
	LastProfitAt *time.Time `db:"last_profit_at" json:"last_profit_at,omitempty"`
	LastDailyAt  *time.Time `db:"last_daily_at" json:"last_daily_at,omitempty"`
	MutedUntil   *time.Time `db:"muted_until" json:"muted_until,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Balance returns the value of a numeric field.
func (a *Account) Balance(f Field) int64 {
	switch f {
	case FieldXP:
		return a.XP
	case FieldGold:
		return a.Gold
	case FieldCrystals:
		return a.Crystals
	}
	return 0
}

// Timestamp returns the value of a timestamp field (nil when never set).
func (a *Account) Timestamp(f TimestampField) *time.Time {
	switch f {
	case TimestampMine:
		return a.LastMineAt
	case TimestampWork:
		return a.LastWorkAt
	case TimestampProfit:
		return a.LastProfitAt
	case TimestampDaily:
		return a.LastDailyAt
	case TimestampMuted:
		return a.MutedUntil
	}
	return nil
}

// Field is a numeric account column that deltas can be applied to.
type Field string

const (
	FieldXP       Field = "xp"
	FieldGold     Field = "gold"
	FieldCrystals Field = "crystals"
)

func (f Field) Valid() bool {
	switch f {
	case FieldXP, FieldGold, FieldCrystals:
		return true
	}
	return false
}

// ParseField accepts xp, gold or crystals.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

// Currency is the closed set of spendable balances.
type Currency string

const (
	CurrencyGold     Currency = "gold"
	CurrencyCrystals Currency = "crystals"
)

// ParseCurrency rejects anything but gold and crystals.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToLower(strings.TrimSpace(s))); c {
	case CurrencyGold, CurrencyCrystals:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
}

func (c Currency) Field() Field {
	return Field(c)
}

// TimestampField is a nullable timestamp column, last write wins.
type TimestampField string

const (
	TimestampMine   TimestampField = "last_mine_at"
	TimestampWork   TimestampField = "last_work_at"
	TimestampProfit TimestampField = "last_profit_at"
	TimestampDaily  TimestampField = "last_daily_at"
	TimestampMuted  TimestampField = "muted_until"
)

func (f TimestampField) Valid() bool {
	switch f {
	case TimestampMine, TimestampWork, TimestampProfit, TimestampDaily, TimestampMuted:
		return true
	}
	return false
}
