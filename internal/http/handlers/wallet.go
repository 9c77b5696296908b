package handlers

import (
	"net/http"

	"mine_economy/internal/domain"

	"github.com/gin-gonic/gin"
)

type transferRequest struct {
	To       int64  `json:"to" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Amount   int64  `json:"amount"`
}

// Transfer sends gold or crystals to another user.
func (h *Handler) Transfer(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Ledger.Transfer(c.Request.Context(), userID, req.To, currency, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type sellRequest struct {
	Amount int64 `json:"amount"`
}

// Sell exchanges crystals for gold at two to one.
func (h *Handler) Sell(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.Ledger.SellCrystals(c.Request.Context(), userID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type grantRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
}

// Grant credits any user. Admins only.
func (h *Handler) Grant(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.IsAdmin == nil || !h.IsAdmin(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	balance, err := h.Ledger.Grant(c.Request.Context(), req.UserID, currency, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "currency": currency, "balance": balance})
}
