package cache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemoryThrottle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	th := NewMemoryThrottle(clock)

	ok, _, err := th.Allow(ctx, "msg:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Allow = %v, %v; want true", ok, err)
	}
	clock.Advance(20 * time.Second)
	ok, left, _ := th.Allow(ctx, "msg:1", time.Minute)
	if ok || left != 40*time.Second {
		t.Fatalf("second Allow = %v, %v; want false with 40s left", ok, left)
	}
	if ok, _, _ := th.Allow(ctx, "msg:2", time.Minute); !ok {
		t.Fatal("other key blocked")
	}

	clock.Advance(40 * time.Second)
	if ok, _, _ := th.Allow(ctx, "msg:1", time.Minute); !ok {
		t.Fatal("Allow after window = false, want true")
	}

	clock.Advance(2 * time.Minute)
	if n := th.Prune(); n != 2 {
		t.Fatalf("pruned = %d, want 2", n)
	}
}

type failingThrottle struct{}

func (failingThrottle) Allow(context.Context, string, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("connection refused")
}

func TestFallbackThrottle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	th := NewFallbackThrottle(failingThrottle{}, NewMemoryThrottle(clockwork.NewFakeClock()))

	ok, _, err := th.Allow(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Allow = %v, %v; want true from fallback", ok, err)
	}
	if ok, _, _ := th.Allow(ctx, "k", time.Minute); ok {
		t.Fatal("second Allow = true, want false from fallback")
	}
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisThrottleIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	th := NewRedisThrottle(client, "test:"+strconv.FormatInt(time.Now().UnixNano(), 10)+":")
	if ok, _, err := th.Allow(ctx, "k", 2*time.Second); err != nil || !ok {
		t.Fatalf("first Allow = %v, %v; want true", ok, err)
	}
	ok, left, err := th.Allow(ctx, "k", 2*time.Second)
	if err != nil || ok {
		t.Fatalf("second Allow = %v, %v; want false", ok, err)
	}
	if left <= 0 || left > 2*time.Second {
		t.Fatalf("left = %v, want within (0, 2s]", left)
	}
}
