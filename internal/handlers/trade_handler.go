package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
	"cryptostock/internal/services"
)

// TradeHandler serves the trade ledger.
type TradeHandler struct {
	tradeService services.TradeServicer
	auditService services.AuditServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeService services.TradeServicer, auditService services.AuditServicer) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, auditService: auditService}
}

// GetTrades returns the user's full trade ledger.
func (h *TradeHandler) GetTrades(c *gin.Context) {
	email, err := authorizeUser(c, c.Param("user"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	trades, err := h.tradeService.GetTrades(email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, trades)
}

// RecordTrade appends a trade to the ledger.
func (h *TradeHandler) RecordTrade(c *gin.Context) {
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

	stored, err := h.tradeService.RecordTrade(&trade)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(email, "RECORD_TRADE", "trade", stored.ID, c.ClientIP(),
		map[string]interface{}{"type": string(stored.Kind), "coinId": stored.AssetID, "total": stored.Total})

	c.JSON(http.StatusCreated, stored)
}

// GetHistory returns a page of the user's trades, newest first.
func (h *TradeHandler) GetHistory(c *gin.Context) {
	email, err := authorizeUser(c, c.Param("user"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := parseStatusFilter(c.Query("status"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tradeService.GetHistory(email, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
