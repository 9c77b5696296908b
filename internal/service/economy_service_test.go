package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mine_economy/internal/domain"
)

func TestMineCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	res, err := e.Perform(ctx, 1, ActionMine)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if res.Crystals != 5 || res.Gold != 0 || res.Account.Crystals != 5 {
		t.Fatalf("mine = %+v, want 5 crystals", res)
	}

	f.clock.Advance(2 * time.Minute)
	_, err = e.Perform(ctx, 1, ActionMine)
	var ce *domain.CooldownError
	if !errors.As(err, &ce) || ce.Remaining != 3*time.Minute {
		t.Fatalf("second mine err = %v, want cooldown with 3m left", err)
	}
	if got := f.account(t, 1).Crystals; got != 5 {
		t.Fatalf("crystals after blocked mine = %d, want 5", got)
	}

	f.clock.Advance(3 * time.Minute)
	if _, err := e.Perform(ctx, 1, ActionMine); err != nil {
		t.Fatalf("mine after cooldown: %v", err)
	}
}

func TestConcurrentMineClaimsPassOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Perform(ctx, 1, ActionMine)
			if err != nil {
				if !errors.Is(err, domain.ErrCooldown) {
					t.Errorf("mine: %v", err)
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
		t.Fatalf("successful mines = %d, want 1", ok)
	}
	if got := f.account(t, 1).Crystals; got != 5 {
		t.Fatalf("crystals = %d, want 5", got)
	}
}

func TestMineScalesWithPickaxe(t *testing.T) {
	f := newFixture(t)
	f.src.high = true
	f.setGear(t, 1, domain.GearPickaxe, 2)

	res, err := f.economy().Perform(context.Background(), 1, ActionMine)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	// 15 * 1.10 floored
	if res.Crystals != 16 {
		t.Fatalf("crystals = %d, want 16", res.Crystals)
	}
}

func TestProfitChance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.src.float = 0.5
	res, err := f.economy().Perform(ctx, 1, ActionProfit)
	if err != nil {
		t.Fatalf("profit: %v", err)
	}
	if res.Gold != 0 {
		t.Fatalf("gold = %d, want 0 on a missed roll", res.Gold)
	}
	if _, err := f.economy().Perform(ctx, 1, ActionProfit); !errors.Is(err, domain.ErrCooldown) {
		t.Fatalf("missed roll must still start the cooldown, err = %v", err)
	}

	f.src.float = 0.1
	res, err = f.economy().Perform(ctx, 2, ActionProfit)
	if err != nil || res.Gold != 50 {
		t.Fatalf("profit hit = %+v, %v; want 50 gold", res, err)
	}
}

func TestDailyStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	steps := []struct {
		advance  time.Duration
		streak   int
		gold     int64
		crystals int64
	}{
		{0, 1, 10, 5},
		{24 * time.Hour, 2, 11, 5},
		{30 * time.Hour, 3, 12, 6},
		{72 * time.Hour, 1, 10, 5},
	}
	for i, st := range steps {
		f.clock.Advance(st.advance)
		res, err := e.Perform(ctx, 1, ActionDaily)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Streak != st.streak || res.Gold != st.gold || res.Crystals != st.crystals {
			t.Fatalf("step %d = streak %d gold %d crystals %d, want %d %d %d",
				i, res.Streak, res.Gold, res.Crystals, st.streak, st.gold, st.crystals)
		}
	}
	if got := f.account(t, 1).DailyStreak; got != 1 {
		t.Fatalf("stored streak = %d, want 1", got)
	}
}

func TestDailyScalesWithBoots(t *testing.T) {
	f := newFixture(t)
	f.src.high = true
	f.setGear(t, 1, domain.GearBoots, 4)

	res, err := f.economy().Perform(context.Background(), 1, ActionDaily)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	// 20 * 1.2 and 10 * 1.2
	if res.Gold != 24 || res.Crystals != 12 {
		t.Fatalf("daily = %d gold %d crystals, want 24 and 12", res.Gold, res.Crystals)
	}
}

func TestCooldowns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	if _, err := e.Perform(ctx, 1, ActionWork); err != nil {
		t.Fatalf("work: %v", err)
	}
	f.clock.Advance(10 * time.Minute)

	cds, err := e.Cooldowns(ctx, 1)
	if err != nil {
		t.Fatalf("cooldowns: %v", err)
	}
	if cd := cds[ActionWork]; cd.Eligible || cd.Remaining != 50*time.Minute {
		t.Fatalf("work cooldown = %+v, want 50m left", cd)
	}
	if !cds[ActionMine].Eligible || !cds[ActionDaily].Eligible {
		t.Fatalf("untouched actions must be eligible: %+v", cds)
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("work"); err != nil || a != ActionWork {
		t.Fatalf("ParseAction(work) = %q, %v", a, err)
	}
	if _, err := ParseAction("steal"); !errors.Is(err, domain.ErrUnknownAction) {
		t.Fatalf("ParseAction(steal) err = %v, want ErrUnknownAction", err)
	}
}

func TestVoiceSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setGear(t, 1, domain.GearHelmet, 10)

	res, err := f.economy().VoiceSession(ctx, 1, 30)
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	if res.Gold != 30 || res.Crystals != 45 {
		t.Fatalf("voice = %+v, want 30 gold 45 crystals", res)
	}
	if _, err := f.economy().VoiceSession(ctx, 1, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero minutes err = %v, want ErrInvalidAmount", err)
	}
}

func TestMessageActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	res, err := e.MessageActivity(ctx, 1)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if !res.Awarded || res.XP != 2 || res.BonusGold != 10 {
		t.Fatalf("first message = %+v, want 2 xp and a 10 gold bonus", res)
	}

	res, err = e.MessageActivity(ctx, 1)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if res.Awarded || res.RetryAfter != time.Minute {
		t.Fatalf("throttled message = %+v, want retry after 1m", res)
	}

	f.clock.Advance(time.Minute)
	res, err = e.MessageActivity(ctx, 1)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if !res.Awarded || res.XP != 4 || res.BonusGold != 0 {
		t.Fatalf("second message = %+v, want 4 xp and no bonus", res)
	}
	if got := f.account(t, 1).Gold; got != 10 {
		t.Fatalf("gold = %d, want 10", got)
	}
}

// sendMessages posts n counted messages, one throttle window apart.
func sendMessages(t *testing.T, f *fixture, e *EconomyService, userID int64, n int) *MessageResult {
	t.Helper()
	var res *MessageResult
	for i := 0; i < n; i++ {
		var err error
		res, err = e.MessageActivity(context.Background(), userID)
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if !res.Awarded {
			t.Fatalf("message %d throttled", i)
		}
		f.clock.Advance(time.Minute)
	}
	return res
}

func TestDailyQuestPaidWhenTargetMet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	res := sendMessages(t, f, e, 1, 5)
	if res.Quest == nil || res.Quest.Target != 5 || res.Quest.Progress != 5 {
		t.Fatalf("quest = %+v, want 5/5", res.Quest)
	}

	daily, err := e.Perform(ctx, 1, ActionDaily)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if daily.QuestGold != 20 {
		t.Fatalf("quest gold = %d, want 20", daily.QuestGold)
	}
	// 10 level bonus + 10 daily + 20 quest
	if daily.Account.Gold != 40 {
		t.Fatalf("gold = %d, want 40", daily.Account.Gold)
	}
	if q, err := e.Quest(ctx, 1); err != nil || q != nil {
		t.Fatalf("quest after claim = %+v, %v; want cleared", q, err)
	}

	txs, err := f.store.ListTransactions(ctx, 1, 20)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	var quests int
	for _, tx := range txs {
		if tx.Type == domain.TxQuest {
			quests++
			if tx.Amount != 20 || tx.Field != domain.FieldGold {
				t.Fatalf("quest entry = %+v, want +20 gold", tx)
			}
		}
	}
	if quests != 1 {
		t.Fatalf("quest entries = %d, want 1", quests)
	}
}

func TestDailyQuestUnmetPaysNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	sendMessages(t, f, e, 1, 2)

	daily, err := e.Perform(ctx, 1, ActionDaily)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if daily.QuestGold != 0 {
		t.Fatalf("quest gold = %d, want 0", daily.QuestGold)
	}
	if daily.Account.Gold != 20 {
		t.Fatalf("gold = %d, want 20", daily.Account.Gold)
	}
	q, err := e.Quest(ctx, 1)
	if err != nil || q == nil || q.Progress != 2 || q.Target != 5 {
		t.Fatalf("quest = %+v, %v; want 2/5 kept", q, err)
	}
}

func TestResetQuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.economy()

	sendMessages(t, f, e, 1, 1)
	sendMessages(t, f, e, 2, 3)

	n, err := e.ResetQuests(ctx)
	if err != nil || n != 2 {
		t.Fatalf("reset = %d, %v; want 2", n, err)
	}
	if q, err := e.Quest(ctx, 2); err != nil || q != nil {
		t.Fatalf("quest after reset = %+v, %v; want none", q, err)
	}

	f.src.high = true
	res := sendMessages(t, f, e, 2, 1)
	if res.Quest.Target != 15 || res.Quest.Progress != 1 {
		t.Fatalf("new quest = %+v, want fresh 1/15", res.Quest)
	}
}
