package handlers

import (
	"net/http"

	"mine_economy/internal/game"

	"github.com/gin-gonic/gin"
)

type startGameRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Opponent int64  `json:"opponent" binding:"required"`
	Stake    int64  `json:"stake"`
}

// StartGame opens a wager session between the caller and an opponent.
func (h *Handler) StartGame(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	kind, err := game.ParseKind(req.Kind)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.Registry.Start(c.Request.Context(), kind, userID, req.Opponent, req.Stake)
	if err != nil && snap.SessionID == "" {
		writeError(c, err)
		return
	}
	// a session resolved at start whose settlement failed is still reported
	c.JSON(http.StatusCreated, snap)
}

func (h *Handler) GetGame(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	snap, err := h.Registry.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type gameActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// GameAction submits a choice, hit or stand.
func (h *Handler) GameAction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req gameActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	snap, err := h.Registry.Submit(c.Request.Context(), c.Param("id"), userID, game.Action(req.Action))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
