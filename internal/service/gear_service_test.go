package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mine_economy/internal/domain"
	"mine_economy/internal/gear"
)

func TestUpgradeInsufficientCrystals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, 1, domain.FieldCrystals, 49)
	g := NewGearService(f.store, f.clock, 0)

	_, err := g.Upgrade(ctx, 1, domain.GearPickaxe)
	var fe *domain.FundsError
	if !errors.As(err, &fe) || fe.Required != 50 || fe.Available != 49 {
		t.Fatalf("err = %v, want FundsError requiring 50", err)
	}

	items, err := g.Gear(ctx, 1)
	if err != nil {
		t.Fatalf("gear: %v", err)
	}
	if items[0].Kind != domain.GearPickaxe || items[0].Level != 0 || items[0].NextCost != 50 {
		t.Fatalf("pickaxe = %+v, want level 0 costing 50", items[0])
	}
	if got := f.account(t, 1).Crystals; got != 49 {
		t.Fatalf("crystals = %d, want 49", got)
	}
}

func TestUpgradeFollowsCostCurve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, 1, domain.FieldCrystals, 130)
	g := NewGearService(f.store, f.clock, 0)

	first, err := g.Upgrade(ctx, 1, domain.GearGloves)
	if err != nil {
		t.Fatalf("first upgrade: %v", err)
	}
	second, err := g.Upgrade(ctx, 1, domain.GearGloves)
	if err != nil {
		t.Fatalf("second upgrade: %v", err)
	}
	if first.Spent != 50 || second.Spent != 75 || second.Crystals != 5 {
		t.Fatalf("spent %d then %d leaving %d, want 50, 75, 5", first.Spent, second.Spent, second.Crystals)
	}
	if second.Item.Level != 2 || second.Item.NextCost != 112 || second.Item.Multiplier != gear.Multiplier(2) {
		t.Fatalf("item = %+v, want level 2 next 112 x1.1", second.Item)
	}
}

func TestUpgradeMaxLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, 1, domain.FieldCrystals, 1000)
	g := NewGearService(f.store, f.clock, 1)

	if _, err := g.Upgrade(ctx, 1, domain.GearBoots); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if _, err := g.Upgrade(ctx, 1, domain.GearBoots); !errors.Is(err, domain.ErrMaxLevel) {
		t.Fatalf("err = %v, want ErrMaxLevel", err)
	}
	if got := f.account(t, 1).Crystals; got != 950 {
		t.Fatalf("crystals = %d, want 950", got)
	}
	if _, err := g.Upgrade(ctx, 1, domain.GearKind("cape")); !errors.Is(err, domain.ErrUnknownGearKind) {
		t.Fatalf("err = %v, want ErrUnknownGearKind", err)
	}
}

func TestConcurrentUpgradesSpendOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, 1, domain.FieldCrystals, 60)
	g := NewGearService(f.store, f.clock, 0)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Upgrade(ctx, 1, domain.GearPickaxe)
			if err != nil {
				if !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Errorf("upgrade: %v", err)
				}
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Fatalf("successful upgrades = %d, want 1", ok)
	}
	items, err := g.Gear(ctx, 1)
	if err != nil {
		t.Fatalf("gear: %v", err)
	}
	if items[0].Level != 1 {
		t.Fatalf("pickaxe level = %d, want 1", items[0].Level)
	}
	if got := f.account(t, 1).Crystals; got != 10 {
		t.Fatalf("crystals = %d, want 10", got)
	}
}
