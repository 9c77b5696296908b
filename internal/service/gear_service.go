package service

import (
	"context"
	"fmt"

	"mine_economy/internal/domain"
	"mine_economy/internal/gear"
	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"
	"mine_economy/internal/repository"

	"github.com/jonboulle/clockwork"
)

// GearService upgrades equipment with crystals.
type GearService struct {
	store    repository.Store
	clock    clockwork.Clock
	maxLevel int
}

// NewGearService returns a service. maxLevel <= 0 means no cap.
func NewGearService(store repository.Store, clock clockwork.Clock, maxLevel int) *GearService {
	return &GearService{store: store, clock: clock, maxLevel: maxLevel}
}

// GearItem is one slot as shown to the player.
type GearItem struct {
	Kind       domain.GearKind `json:"kind"`
	Level      int             `json:"level"`
	Multiplier float64         `json:"multiplier"`
	NextCost   int64           `json:"next_cost"`
	MaxLevel   bool            `json:"max_level,omitempty"`
}

func (s *GearService) item(kind domain.GearKind, level int) GearItem {
	it := GearItem{Kind: kind, Level: level, Multiplier: gear.Multiplier(level), NextCost: gear.Cost(level)}
	if s.maxLevel > 0 && level >= s.maxLevel {
		it.MaxLevel = true
		it.NextCost = 0
	}
	return it
}

// Gear lists every slot with its upgrade price.
func (s *GearService) Gear(ctx context.Context, userID int64) ([]GearItem, error) {
	set, err := s.store.GetGear(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]GearItem, 0, len(domain.GearKinds))
	for _, k := range domain.GearKinds {
		out = append(out, s.item(k, set.Level(k)))
	}
	return out, nil
}

// UpgradeResult reports a finished upgrade.
type UpgradeResult struct {
	Item     GearItem `json:"item"`
	Spent    int64    `json:"spent"`
	Crystals int64    `json:"crystals"`
}

// Upgrade raises one gear level by one, paying gear.Cost(level) crystals. The
// price is computed from the locked row so a concurrent upgrade cannot reuse
// a stale level.
func (s *GearService) Upgrade(ctx context.Context, userID int64, kind domain.GearKind) (*UpgradeResult, error) {
	if _, err := domain.ParseGearKind(string(kind)); err != nil {
		return nil, err
	}

	res := &UpgradeResult{}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		set, err := tx.Gear(ctx, userID)
		if err != nil {
			return err
		}
		level := set.Level(kind)
		if s.maxLevel > 0 && level >= s.maxLevel {
			return fmt.Errorf("%w: %s is level %d", domain.ErrMaxLevel, kind, level)
		}

		res.Spent = gear.Cost(level)
		res.Crystals, err = apply(ctx, tx, s.clock.Now(), delta{
			UserID: userID, Field: domain.FieldCrystals, Amount: -res.Spent, Type: domain.TxGearUpgrade,
			Meta: map[string]interface{}{"kind": string(kind), "level": level + 1},
		})
		if err != nil {
			return err
		}
		if err := tx.SetGearLevel(ctx, userID, kind, level+1); err != nil {
			return err
		}
		res.Item = s.item(kind, level+1)
		return nil
	})
	if err != nil {
		metrics.GearUpgrades.WithLabelValues(string(kind), actionLabel(err)).Inc()
		logFailure("gear upgrade failed", err, "user_id", userID, "kind", kind)
		return nil, err
	}
	metrics.GearUpgrades.WithLabelValues(string(kind), "ok").Inc()
	logger.Info("gear upgraded", "user_id", userID, "kind", kind, "level", res.Item.Level, "spent", res.Spent)
	return res, nil
}
