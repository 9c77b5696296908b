package handlers

import (
	"net/http"

	"mine_economy/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetGear lists gear levels and next upgrade prices.
func (h *Handler) GetGear(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Gear.Gear(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gear": items})
}

// UpgradeGear buys the next level of :kind with crystals.
func (h *Handler) UpgradeGear(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	kind, err := domain.ParseGearKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Gear.Upgrade(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
