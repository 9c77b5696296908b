package handlers

import (
	"net/http"

	"mine_economy/internal/game"
	"mine_economy/internal/http/httperr"
	"mine_economy/internal/http/middleware"
	"mine_economy/internal/logger"
	"mine_economy/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Ledger   *service.LedgerService
	Economy  *service.EconomyService
	Gear     *service.GearService
	Cases    *service.CaseService
	Registry *game.Registry

	// IsAdmin gates the grant endpoint. Nil denies everyone.
	IsAdmin func(userID int64) bool
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// writeError responds with the status mapped from err. Unexpected errors are
// logged; business rejections are not.
func writeError(c *gin.Context, err error) {
	status, _ := httperr.Status(err)
	if status >= 500 {
		logger.WithContext(c.Request.Context()).Error("request error", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, httperr.Body(err))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}
