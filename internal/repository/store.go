package repository

import (
	"context"
	"slices"
	"time"

	"mine_economy/internal/domain"
)

const defaultListLimit = 100

// Store is the durable side of the ledger. Every mutation goes through WithTx so
// that a logical operation (a transfer, a case opening, a cooldown claim) is
// applied as one unit or not at all.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// GetAccount returns the account, creating a zero-valued one on first access.
	GetAccount(ctx context.Context, userID int64) (*domain.Account, error)
	GetGear(ctx context.Context, userID int64) (*domain.GearSet, error)

	ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
	SaveGameHistory(ctx context.Context, gh *domain.GameHistory) error
	ListGameHistory(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error)
	TopBy(ctx context.Context, field domain.Field, limit int) ([]*domain.Account, error)

	// ResetQuests drops every open quest and returns how many were removed.
	ResetQuests(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Tx is a unit of work against the store. Balance updates are conditional:
// AddBalance never leaves a field negative.
type Tx interface {
	// LockAccounts creates missing accounts and locks them in ascending id order.
	LockAccounts(ctx context.Context, userIDs ...int64) (map[int64]*domain.Account, error)
	// AddBalance applies delta and returns the new value. A delta that would
	// make the field negative fails with *domain.FundsError and changes nothing.
	AddBalance(ctx context.Context, userID int64, field domain.Field, delta int64) (int64, error)
	SetTimestamp(ctx context.Context, userID int64, field domain.TimestampField, value *time.Time) error
	SetStreak(ctx context.Context, userID int64, streak int) error

	// Gear returns (and locks) the gear row, creating it on first access.
	Gear(ctx context.Context, userID int64) (*domain.GearSet, error)
	SetGearLevel(ctx context.Context, userID int64, kind domain.GearKind, level int) error

	Record(ctx context.Context, t *domain.Transaction) error

	// Quest returns the user's open quest, or nil when there is none.
	Quest(ctx context.Context, userID int64) (*domain.Quest, error)
	SaveQuest(ctx context.Context, q *domain.Quest) error
	DeleteQuest(ctx context.Context, userID int64) error
}

// SortedIDs returns ids deduplicated in ascending order, the lock order used
// by every store to avoid deadlocks between paired transfers.
func SortedIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ListLimit clamps a caller supplied limit.
func ListLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}
