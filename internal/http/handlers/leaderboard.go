package handlers

import (
	"net/http"
	"strconv"

	"mine_economy/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top users by ?by=xp|gold|crystals (xp by default).
func (h *Handler) GetLeaderboard(c *gin.Context) {
	field, err := domain.ParseField(c.DefaultQuery("by", "xp"))
	if err != nil {
		writeError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	top, err := h.Ledger.Leaderboard(c.Request.Context(), field, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": top,
		"by":          field,
	})
}
