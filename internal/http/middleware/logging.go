package middleware

import (
	"time"

	"mine_economy/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger tags each request with an id, stores a scoped logger in the
// request context and logs the outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		l := logger.With("request_id", reqID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), l))
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		}
		if uid, ok := c.Get(UserIDKey); ok {
			args = append(args, "user_id", uid)
		}
		if c.Writer.Status() >= 500 {
			l.Error("request failed", args...)
			return
		}
		l.Debug("request", args...)
	}
}
