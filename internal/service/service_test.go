package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mine_economy/internal/cache"
	"mine_economy/internal/domain"
	"mine_economy/internal/repository"
	"mine_economy/internal/repository/sqlite"

	"github.com/jonboulle/clockwork"
)

var epoch = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// stubSource returns the lowest integer of every range, or the highest when
// high is set, and a fixed float.
type stubSource struct {
	high  bool
	float float64
}

func (s *stubSource) Float64() float64 { return s.float }

func (s *stubSource) Int64N(n int64) int64 {
	if s.high {
		return n - 1
	}
	return 0
}

type fixture struct {
	store repository.Store
	clock *clockwork.FakeClock
	src   *stubSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "economy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{store: store, clock: clockwork.NewFakeClockAt(epoch), src: &stubSource{}}
}

func (f *fixture) ledger() *LedgerService {
	return NewLedgerService(f.store, f.clock)
}

func (f *fixture) economy() *EconomyService {
	return NewEconomyService(f.store, f.clock, f.src, cache.NewMemoryThrottle(f.clock), DefaultEconomyConfig())
}

// fund credits a balance through the ledger so the journal stays complete.
func (f *fixture) fund(t *testing.T, userID int64, field domain.Field, amount int64) {
	t.Helper()
	if _, err := f.ledger().ApplyDelta(context.Background(), userID, field, amount); err != nil {
		t.Fatalf("fund %d %s: %v", userID, field, err)
	}
}

func (f *fixture) account(t *testing.T, userID int64) *domain.Account {
	t.Helper()
	acc, err := f.store.GetAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("get account %d: %v", userID, err)
	}
	return acc
}

func (f *fixture) setGear(t *testing.T, userID int64, kind domain.GearKind, level int) {
	t.Helper()
	err := f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		if _, err := tx.Gear(context.Background(), userID); err != nil {
			return err
		}
		return tx.SetGearLevel(context.Background(), userID, kind, level)
	})
	if err != nil {
		t.Fatalf("set gear: %v", err)
	}
}
