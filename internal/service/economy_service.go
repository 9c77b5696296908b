package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mine_economy/internal/cache"
	"mine_economy/internal/cooldown"
	"mine_economy/internal/domain"
	"mine_economy/internal/gear"
	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"
	"mine_economy/internal/repository"
	"mine_economy/internal/reward"

	"github.com/jonboulle/clockwork"
)

// ActionKind is a cooldown-gated earning action.
type ActionKind string

const (
	ActionMine   ActionKind = "mine"
	ActionWork   ActionKind = "work"
	ActionProfit ActionKind = "profit"
	ActionDaily  ActionKind = "daily"
)

var actionKinds = []ActionKind{ActionMine, ActionWork, ActionProfit, ActionDaily}

func ParseAction(s string) (ActionKind, error) {
	for _, a := range actionKinds {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, s)
}

const (
	messageXP        = 2
	messageBonusGold = 10
	xpPerLevel       = 100

	questBonusGold = 20
	questTargetMin = 5
	questTargetMax = 15
)

// EconomyConfig holds the cooldown windows and reward odds.
type EconomyConfig struct {
	MineCooldown    time.Duration
	WorkCooldown    time.Duration
	ProfitCooldown  time.Duration
	DailyCooldown   time.Duration
	MessageCooldown time.Duration
	ProfitChance    float64
}

func DefaultEconomyConfig() EconomyConfig {
	return EconomyConfig{
		MineCooldown:    5 * time.Minute,
		WorkCooldown:    time.Hour,
		ProfitCooldown:  4 * time.Hour,
		DailyCooldown:   24 * time.Hour,
		MessageCooldown: time.Minute,
		ProfitChance:    0.2,
	}
}

type policy struct {
	period time.Duration
	stamp  domain.TimestampField
}

// EconomyService runs the earning actions.
type EconomyService struct {
	store    repository.Store
	clock    clockwork.Clock
	src      reward.Source
	throttle cache.Throttle
	cfg      EconomyConfig
	policies map[ActionKind]policy
}

func NewEconomyService(store repository.Store, clock clockwork.Clock, src reward.Source, throttle cache.Throttle, cfg EconomyConfig) *EconomyService {
	return &EconomyService{
		store:    store,
		clock:    clock,
		src:      src,
		throttle: throttle,
		cfg:      cfg,
		policies: map[ActionKind]policy{
			ActionMine:   {period: cfg.MineCooldown, stamp: domain.TimestampMine},
			ActionWork:   {period: cfg.WorkCooldown, stamp: domain.TimestampWork},
			ActionProfit: {period: cfg.ProfitCooldown, stamp: domain.TimestampProfit},
			ActionDaily:  {period: cfg.DailyCooldown, stamp: domain.TimestampDaily},
		},
	}
}

// ActionResult is what an eligible action paid out.
type ActionResult struct {
	Action    ActionKind      `json:"action"`
	Gold      int64           `json:"gold"`
	Crystals  int64           `json:"crystals"`
	Streak    int             `json:"streak,omitempty"`
	QuestGold int64           `json:"quest_gold,omitempty"` // daily claim only
	Account   *domain.Account `json:"account"`
}

// Perform runs a cooldown-gated action. The cooldown check, the payout and the
// timestamp update commit together, so two concurrent claims cannot both pass.
func (s *EconomyService) Perform(ctx context.Context, userID int64, action ActionKind) (*ActionResult, error) {
	p, ok := s.policies[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, action)
	}

	res := &ActionResult{Action: action}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		accounts, err := tx.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		acc := accounts[userID]
		now := s.clock.Now()

		check := cooldown.Check(acc.Timestamp(p.stamp), p.period, now)
		if !check.Eligible {
			return &domain.CooldownError{Action: string(action), Remaining: check.Remaining}
		}

		levels, err := tx.Gear(ctx, userID)
		if err != nil {
			return err
		}

		txType := domain.TxType(action)
		switch action {
		case ActionMine:
			res.Crystals = gear.Apply(reward.UniformInt(s.src, 5, 15), levels.Pickaxe)
		case ActionWork:
			res.Gold = reward.UniformInt(s.src, 5, 10)
		case ActionProfit:
			if reward.Chance(s.src, s.cfg.ProfitChance) {
				res.Gold = reward.UniformInt(s.src, 50, 100)
			}
		case ActionDaily:
			res.Streak = cooldown.NextStreak(acc.LastDailyAt, acc.DailyStreak, p.period, now)
			res.Gold = dailyAmount(reward.UniformInt(s.src, 10, 20), res.Streak, levels.Boots)
			res.Crystals = dailyAmount(reward.UniformInt(s.src, 5, 10), res.Streak, levels.Boots)
			if err := tx.SetStreak(ctx, userID, res.Streak); err != nil {
				return err
			}
		}

		meta := map[string]interface{}{"action": string(action)}
		if res.Gold > 0 {
			if _, err := apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldGold, Amount: res.Gold, Type: txType, Meta: meta}); err != nil {
				return err
			}
		}
		if res.Crystals > 0 {
			if _, err := apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldCrystals, Amount: res.Crystals, Type: txType, Meta: meta}); err != nil {
				return err
			}
		}
		if action == ActionDaily {
			if res.QuestGold, err = claimQuest(ctx, tx, userID, now); err != nil {
				return err
			}
		}
		if err := tx.SetTimestamp(ctx, userID, p.stamp, &now); err != nil {
			return err
		}

		accounts, err = tx.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		res.Account = accounts[userID]
		return nil
	})
	if err != nil {
		metrics.Actions.WithLabelValues(string(action), actionLabel(err)).Inc()
		logFailure("action failed", err, "user_id", userID, "action", action)
		return nil, err
	}
	metrics.Actions.WithLabelValues(string(action), "ok").Inc()
	logger.Debug("action performed", "user_id", userID, "action", action, "gold", res.Gold, "crystals", res.Crystals, "quest_gold", res.QuestGold)
	return res, nil
}

// dailyAmount scales base by the streak bonus (10% per day after the first)
// and the boots multiplier, flooring once at the end.
func dailyAmount(base int64, streak, boots int) int64 {
	if streak < 1 {
		streak = 1
	}
	return base * int64(9+streak) * int64(20+boots) / 200
}

// claimQuest pays and clears a finished quest. An unfinished one is kept.
func claimQuest(ctx context.Context, tx repository.Tx, userID int64, now time.Time) (int64, error) {
	q, err := tx.Quest(ctx, userID)
	if err != nil || q == nil || !q.Done() {
		return 0, err
	}
	if _, err := apply(ctx, tx, now, delta{
		UserID: userID, Field: domain.FieldGold, Amount: questBonusGold, Type: domain.TxQuest,
		Meta: map[string]interface{}{"kind": string(q.Kind), "target": q.Target},
	}); err != nil {
		return 0, err
	}
	if err := tx.DeleteQuest(ctx, userID); err != nil {
		return 0, err
	}
	metrics.QuestsCompleted.Inc()
	return questBonusGold, nil
}

func actionLabel(err error) string {
	if domain.IsRejection(err) {
		return "blocked"
	}
	return "error"
}

// Cooldowns reports the wait left on every action.
func (s *EconomyService) Cooldowns(ctx context.Context, userID int64) (map[ActionKind]cooldown.Result, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make(map[ActionKind]cooldown.Result, len(s.policies))
	for action, p := range s.policies {
		out[action] = cooldown.Check(acc.Timestamp(p.stamp), p.period, now)
	}
	return out, nil
}

// VoiceResult is the passive income for time spent in voice.
type VoiceResult struct {
	Minutes  int64 `json:"minutes"`
	Gold     int64 `json:"gold"`
	Crystals int64 `json:"crystals"`
}

// VoiceSession credits one gold per minute plus crystals scaled by the helmet.
func (s *EconomyService) VoiceSession(ctx context.Context, userID, minutes int64) (*VoiceResult, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", domain.ErrInvalidAmount, minutes)
	}
	res := &VoiceResult{Minutes: minutes, Gold: minutes}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		levels, err := tx.Gear(ctx, userID)
		if err != nil {
			return err
		}
		res.Crystals = gear.Apply(minutes, levels.Helmet)

		now := s.clock.Now()
		meta := map[string]interface{}{"minutes": minutes}
		if _, err := apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldGold, Amount: res.Gold, Type: domain.TxVoice, Meta: meta}); err != nil {
			return err
		}
		_, err = apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldCrystals, Amount: res.Crystals, Type: domain.TxVoice, Meta: meta})
		return err
	})
	if err != nil {
		logFailure("voice session failed", err, "user_id", userID, "minutes", minutes)
		return nil, err
	}
	return res, nil
}

// MessageResult reports what a chat message earned.
type MessageResult struct {
	Awarded    bool          `json:"awarded"`
	XP         int64         `json:"xp"`
	BonusGold  int64         `json:"bonus_gold"`
	Quest      *domain.Quest `json:"quest,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// MessageActivity grants message xp at most once per window. When the xp
// before the gain sits on a level boundary, a gold bonus scaled by the gloves
// is paid as well. Every counted message advances the daily quest.
func (s *EconomyService) MessageActivity(ctx context.Context, userID int64) (*MessageResult, error) {
	ok, left, err := s.throttle.Allow(ctx, "msg:"+strconv.FormatInt(userID, 10), s.cfg.MessageCooldown)
	if err != nil {
		logger.Warn("message throttle failed, allowing", "user_id", userID, "error", err)
		ok = true
	}
	if !ok {
		return &MessageResult{RetryAfter: left}, nil
	}

	res := &MessageResult{Awarded: true}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		accounts, err := tx.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		before := accounts[userID].XP
		now := s.clock.Now()

		res.XP, err = apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldXP, Amount: messageXP, Type: domain.TxMessage})
		if err != nil {
			return err
		}
		if before%xpPerLevel == 0 {
			levels, err := tx.Gear(ctx, userID)
			if err != nil {
				return err
			}
			res.BonusGold = gear.Apply(messageBonusGold, levels.Gloves)
			if _, err := apply(ctx, tx, now, delta{
				UserID: userID, Field: domain.FieldGold, Amount: res.BonusGold, Type: domain.TxMessage,
				Meta: map[string]interface{}{"level": before / xpPerLevel},
			}); err != nil {
				return err
			}
		}
		res.Quest, err = s.advanceQuest(ctx, tx, userID, now)
		return err
	})
	if err != nil {
		logFailure("message activity failed", err, "user_id", userID)
		return nil, err
	}
	return res, nil
}

// advanceQuest counts one message toward the daily quest, drawing a target
// on the first counted message since the last reset.
func (s *EconomyService) advanceQuest(ctx context.Context, tx repository.Tx, userID int64, now time.Time) (*domain.Quest, error) {
	q, err := tx.Quest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = &domain.Quest{
			UserID:    userID,
			Kind:      domain.QuestMessages,
			Target:    reward.UniformInt(s.src, questTargetMin, questTargetMax),
			CreatedAt: now,
		}
	}
	q.Progress++
	if err := tx.SaveQuest(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Quest returns the user's open daily quest, or nil.
func (s *EconomyService) Quest(ctx context.Context, userID int64) (*domain.Quest, error) {
	var q *domain.Quest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		q, err = tx.Quest(ctx, userID)
		return err
	})
	return q, err
}

// ResetQuests clears every open quest. It runs once per quest period.
func (s *EconomyService) ResetQuests(ctx context.Context) (int64, error) {
	n, err := s.store.ResetQuests(ctx)
	if err != nil {
		logger.Error("reset quests failed", "error", err)
		return 0, err
	}
	logger.Info("daily quests reset", "cleared", n)
	return n, nil
}
