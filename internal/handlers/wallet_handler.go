package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/services"
)

// WalletHandler serves cash balances.
type WalletHandler struct {
	walletService services.WalletServicer
	auditService  services.AuditServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer, auditService services.AuditServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, auditService: auditService}
}

// GetWallet returns the user's balance.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	email, err := authorizeUser(c, c.Param("user"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWallet(email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet.Balance())
}

// UpdateWallet overwrites the user's balance.
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	var req models.WalletBalance
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	email, err := authorizeUser(c, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.SetBalance(email, decimal.NewFromFloat(req.BalanceUSD))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(email, "UPDATE_WALLET", "wallet", wallet.ID, c.ClientIP(),
		map[string]interface{}{"balanceUsd": wallet.BalanceUSD.StringFixed(2)})

	c.JSON(http.StatusOK, wallet.Balance())
}
