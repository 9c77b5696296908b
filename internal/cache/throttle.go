package cache

import (
	"context"
	"sync"
	"time"

	"mine_economy/internal/logger"

	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"
)

// Throttle admits at most one event per key per window.
type Throttle interface {
	// Allow claims key for window. When the key is already claimed it
	// returns false and the time left on the claim.
	Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

// RedisThrottle claims keys with SET NX so every replica shares the window.
type RedisThrottle struct {
	client *redis.Client
	prefix string
}

func NewRedisThrottle(client *redis.Client, prefix string) *RedisThrottle {
	return &RedisThrottle{client: client, prefix: prefix}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	k := t.prefix + key
	ok, err := t.client.SetNX(ctx, k, 1, window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := t.client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return false, ttl, nil
}

// MemoryThrottle is the single-process variant.
type MemoryThrottle struct {
	mu    sync.Mutex
	clock clockwork.Clock
	until map[string]time.Time
}

func NewMemoryThrottle(clock clockwork.Clock) *MemoryThrottle {
	return &MemoryThrottle{clock: clock, until: make(map[string]time.Time)}
}

func (t *MemoryThrottle) Allow(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if u, ok := t.until[key]; ok && now.Before(u) {
		return false, u.Sub(now), nil
	}
	t.until[key] = now.Add(window)
	return true, 0, nil
}

// Prune drops expired claims.
func (t *MemoryThrottle) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	n := 0
	for k, u := range t.until {
		if !now.Before(u) {
			delete(t.until, k)
			n++
		}
	}
	return n
}

// FallbackThrottle uses primary and switches to secondary for a call when
// primary fails, so a Redis outage never blocks activity rewards.
type FallbackThrottle struct {
	primary   Throttle
	secondary Throttle
}

func NewFallbackThrottle(primary, secondary Throttle) *FallbackThrottle {
	return &FallbackThrottle{primary: primary, secondary: secondary}
}

func (t *FallbackThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	ok, left, err := t.primary.Allow(ctx, key, window)
	if err == nil {
		return ok, left, nil
	}
	logger.Warn("throttle: primary failed, using fallback", "key", key, "error", err)
	return t.secondary.Allow(ctx, key, window)
}
