package handlers

import (
	"net/http"

	"mine_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// PerformAction runs mine, work, profit or daily.
func (h *Handler) PerformAction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	action, err := service.ParseAction(c.Param("action"))
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Economy.Perform(c.Request.Context(), userID, action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MessageActivity credits xp for a chat message.
func (h *Handler) MessageActivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Economy.MessageActivity(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type voiceRequest struct {
	Minutes int64 `json:"minutes"`
}

// VoiceActivity credits time spent in a voice channel.
func (h *Handler) VoiceActivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.Economy.VoiceSession(c.Request.Context(), userID, req.Minutes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
