package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/repository"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "economy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestGetAccountCreatesZeroAccount(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)

	a, err := store.GetAccount(context.Background(), 42)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.UserID != 42 || a.XP != 0 || a.Gold != 0 || a.Crystals != 0 || a.DailyStreak != 0 {
		t.Fatalf("account = %+v, want zero account for 42", a)
	}
	if a.LastMineAt != nil || a.LastDailyAt != nil || a.MutedUntil != nil {
		t.Fatalf("timestamps = %v %v %v, want nil", a.LastMineAt, a.LastDailyAt, a.MutedUntil)
	}

	g, err := store.GetGear(context.Background(), 42)
	if err != nil {
		t.Fatalf("get gear: %v", err)
	}
	for _, k := range domain.GearKinds {
		if g.Level(k) != 0 {
			t.Fatalf("%s level = %d, want 0", k, g.Level(k))
		}
	}
}

func TestAddBalanceRejectsOverdraft(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		v, err := tx.AddBalance(ctx, 1, domain.FieldGold, 30)
		if err != nil {
			return err
		}
		if v != 30 {
			t.Fatalf("gold = %d, want 30", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}

	err = store.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.AddBalance(ctx, 1, domain.FieldGold, -50)
		return err
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("debit err = %v, want ErrInsufficientFunds", err)
	}
	var fe *domain.FundsError
	if !errors.As(err, &fe) {
		t.Fatalf("debit err = %T, want *FundsError", err)
	}
	if fe.Required != 50 || fe.Available != 30 {
		t.Fatalf("funds error = %+v, want required 50 available 30", fe)
	}

	a, err := store.GetAccount(ctx, 1)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.Gold != 30 {
		t.Fatalf("gold = %d, want 30", a.Gold)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.AddBalance(ctx, 7, domain.FieldCrystals, 100); err != nil {
			return err
		}
		if err := tx.Record(ctx, &domain.Transaction{UserID: 7, Type: domain.TxAdjust, Field: domain.FieldCrystals, Amount: 100}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	a, err := store.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.Crystals != 0 {
		t.Fatalf("crystals = %d, want 0 after rollback", a.Crystals)
	}
	txs, err := store.ListTransactions(ctx, 7, 10)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("transactions len = %d, want 0", len(txs))
	}
}

func TestTimestampsAndStreakRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 30, 15, 250_000_000, time.UTC)

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.SetTimestamp(ctx, 9, domain.TimestampDaily, &now); err != nil {
			return err
		}
		return tx.SetStreak(ctx, 9, 4)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	a, err := store.GetAccount(ctx, 9)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.LastDailyAt == nil || !a.LastDailyAt.Equal(now) {
		t.Fatalf("last daily = %v, want %v", a.LastDailyAt, now)
	}
	if a.DailyStreak != 4 {
		t.Fatalf("streak = %d, want 4", a.DailyStreak)
	}

	err = store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SetTimestamp(ctx, 9, domain.TimestampDaily, nil)
	})
	if err != nil {
		t.Fatalf("clear timestamp: %v", err)
	}
	a, _ = store.GetAccount(ctx, 9)
	if a.LastDailyAt != nil {
		t.Fatalf("last daily = %v, want nil", a.LastDailyAt)
	}
}

func TestGearLevels(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Gear(ctx, 3); err != nil {
			return err
		}
		return tx.SetGearLevel(ctx, 3, domain.GearHelmet, 2)
	})
	if err != nil {
		t.Fatalf("set gear: %v", err)
	}
	g, err := store.GetGear(ctx, 3)
	if err != nil {
		t.Fatalf("get gear: %v", err)
	}
	if g.Helmet != 2 || g.Pickaxe != 0 {
		t.Fatalf("gear = %+v, want helmet 2", g)
	}

	err = store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SetGearLevel(ctx, 3, domain.GearKind("cape"), 1)
	})
	if !errors.Is(err, domain.ErrUnknownGearKind) {
		t.Fatalf("err = %v, want ErrUnknownGearKind", err)
	}
}

func TestJournalAndHistoryOrdering(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 21, 23, 30, 0, 0, time.UTC)

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		for i, typ := range []domain.TxType{domain.TxMine, domain.TxWork} {
			if err := tx.Record(ctx, &domain.Transaction{
				UserID:    5,
				Type:      typ,
				Field:     domain.FieldGold,
				Amount:    int64(10 * (i + 1)),
				Meta:      map[string]interface{}{"step": i},
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	txs, err := store.ListTransactions(ctx, 5, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions len = %d, want 2", len(txs))
	}
	if txs[0].Type != domain.TxWork {
		t.Fatalf("txs[0].type = %q, want %q", txs[0].Type, domain.TxWork)
	}
	if txs[1].Meta["step"] != float64(0) {
		t.Fatalf("txs[1].meta = %v, want step 0", txs[1].Meta)
	}

	entries := domain.NewGameHistoryPair(domain.GameTypeRPS, "s-1", [2]int64{5, 6}, ptr(int64(5)), false, 20, 20, nil)
	for _, gh := range entries {
		if err := store.SaveGameHistory(ctx, gh); err != nil {
			t.Fatalf("save history: %v", err)
		}
	}
	hist, err := store.ListGameHistory(ctx, 6, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if hist[0].Result != domain.GameResultLose || hist[0].Amount != -20 || hist[0].OpponentID != 5 {
		t.Fatalf("history = %+v, want loss of 20 against 5", hist[0])
	}
}

func TestTopBy(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		for id, gold := range map[int64]int64{1: 10, 2: 50, 3: 30} {
			if _, err := tx.AddBalance(ctx, id, domain.FieldGold, gold); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	top, err := store.TopBy(ctx, domain.FieldGold, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != 2 || top[1].UserID != 3 {
		t.Fatalf("top = %v, want users 2 then 3", top)
	}

	if _, err := store.TopBy(ctx, domain.Field("level"), 2); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func ptr[T any](v T) *T { return &v }
