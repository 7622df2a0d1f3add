package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/services"
)

// PortfolioHandler serves the holdings of record.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer, auditService services.AuditServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, auditService: auditService}
}

// GetPortfolio returns the user's holdings snapshot as an asset id to
// quantity map.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	email, err := authorizeUser(c, c.Param("user"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.portfolioService.GetSnapshot(email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// UpdatePortfolio applies a BUY or SELL trade to the holdings.
func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	var trade models.Trade
	if err := c.ShouldBindJSON(&trade); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	email, err := authorizeUser(c, trade.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	trade.Email = email

	holding, err := h.portfolioService.ApplyTrade(&trade)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(email, "APPLY_"+string(trade.Kind), "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"coinId": holding.AssetID, "quantity": trade.Quantity, "held": holding.Quantity})

	c.JSON(http.StatusOK, holding)
}
