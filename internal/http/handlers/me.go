package handlers

import (
	"net/http"
	"strconv"

	"mine_economy/internal/cooldown"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.Ledger.GetAccount(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	items, err := h.Gear.Gear(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	quest, err := h.Economy.Quest(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": acc,
		"level":   acc.XP / 100,
		"gear":    items,
		"quest":   quest,
	})
}

// Cooldowns returns the seconds left on every action.
func (h *Handler) Cooldowns(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	cds, err := h.Economy.Cooldowns(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make(gin.H, len(cds))
	for action, res := range cds {
		out[string(action)] = gin.H{
			"eligible":          res.Eligible,
			"remaining_seconds": cooldown.Seconds(res.Remaining),
		}
	}
	c.JSON(http.StatusOK, gin.H{"cooldowns": out})
}

// History returns the journal and game results, newest first.
func (h *Handler) History(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	hist, err := h.Ledger.History(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
