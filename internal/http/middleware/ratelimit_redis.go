package middleware

import (
	"net/http"
	"strconv"
	"time"

	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE. Without
// a client it falls back to an in-process window per key.
type RateLimiter struct {
	client *redis.Client
	local  *memoryWindow
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, local: newMemoryWindow()}
}

// ByIP limits requests per client IP.
// key format: rl:<window_seconds>:<ip>
func (rl *RateLimiter) ByIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return rl.limit(maxRequests, window, func(c *gin.Context) (string, bool) {
		return "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP(), true
	})
}

// ByUser limits requests per authenticated user. JWT must run first.
// key format: <prefix>_rl:<user_id>:<window_seconds>
func (rl *RateLimiter) ByUser(prefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return rl.limit(maxRequests, window, func(c *gin.Context) (string, bool) {
		userID, ok := c.Get(UserIDKey)
		if !ok {
			return "", false
		}
		id, ok := userID.(int64)
		if !ok {
			return "", false
		}
		return prefix + "_rl:" + strconv.FormatInt(id, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10), true
	})
}

func (rl *RateLimiter) limit(maxRequests int, window time.Duration, keyFn func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyFn(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		count, err := rl.incr(c, key, window)
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			logger.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-count), 10))

		if count > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func (rl *RateLimiter) incr(c *gin.Context, key string, window time.Duration) (int64, error) {
	if rl.client == nil {
		return rl.local.incr(key, window, time.Now()), nil
	}
	ctx := c.Request.Context()
	val, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		// first increment, set expiry
		rl.client.Expire(ctx, key, window)
	}
	return val, nil
}

// PruneLocal drops finished in-process windows. Redis expires its own keys.
func (rl *RateLimiter) PruneLocal() int {
	return rl.local.prune(time.Now())
}
