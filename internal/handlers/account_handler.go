package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
	"cryptostock/internal/trading"
)

// AccountLedger is the part of the ledger backend the dashboard reads for the
// wallet and history pages.
type AccountLedger interface {
	GetWallet(ctx context.Context, user string) (*models.WalletBalance, error)
	GetTradeHistory(ctx context.Context, user string, status models.TradeStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error)
}

// TradeExecutor places orders.
type TradeExecutor interface {
	Execute(ctx context.Context, user string, order trading.Order) (*models.Trade, error)
}

// Refresher is notified after a trade so open streams revalue immediately.
type Refresher interface {
	RefreshUser(user string)
}

// TradeResponse wraps an executed trade.
type TradeResponse struct {
	Trade *models.Trade `json:"trade"`
}

// AccountHandler serves the signed-in user's wallet, trade history and
// trade actions.
type AccountHandler struct {
	ledger    AccountLedger
	trader    TradeExecutor
	refresher Refresher
}

// NewAccountHandler creates a new AccountHandler. refresher may be nil.
func NewAccountHandler(ledger AccountLedger, trader TradeExecutor, refresher Refresher) *AccountHandler {
	return &AccountHandler{ledger: ledger, trader: trader, refresher: refresher}
}

// GetWallet handles retrieving the user's cash balance
// @Summary     Get wallet
// @Description Get the authenticated user's cash balance. A user without a wallet has a zero balance.
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.WalletBalance "Wallet"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger unavailable"
// @Router      /wallet [get]
func (h *AccountHandler) GetWallet(c *gin.Context) {
	email, err := getEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.ledger.GetWallet(upstreamContext(c), email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrWalletNotFound) {
			respondWithError(c, err)
			return
		}
		wallet = &models.WalletBalance{Email: email}
	}

	c.JSON(http.StatusOK, wallet)
}

// GetHistory handles retrieving the user's trade history
// @Summary     Get trade history
// @Description Get a page of the authenticated user's trades, newest first
// @Tags        trades
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Status filter (All, Completed, Pending, Failed)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size (1-100)"
// @Success     200 {object} pagination.PageResponse[models.Trade] "Trades"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger unavailable"
// @Router      /history [get]
func (h *AccountHandler) GetHistory(c *gin.Context) {
	email, err := getEmail(c)
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

	var filter models.TradeStatus
	if status != nil {
		filter = *status
	}
	result, err := h.ledger.GetTradeHistory(upstreamContext(c), email, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PlaceTrade handles a buy, sell, deposit or withdrawal
// @Summary     Place a trade
// @Description Buy or sell an asset at the current market price, or deposit or withdraw cash
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body trading.Order true "Order"
// @Success     201 {object} TradeResponse "Trade executed"
// @Failure     400 {object} ErrorResponse "Invalid input, insufficient funds or holdings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Price or ledger unavailable"
// @Router      /trades [post]
func (h *AccountHandler) PlaceTrade(c *gin.Context) {
	email, err := getEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var order trading.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.trader.Execute(upstreamContext(c), email, order)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if h.refresher != nil {
		h.refresher.RefreshUser(email)
	}

	c.JSON(http.StatusCreated, TradeResponse{Trade: trade})
}
