package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/market"
	"cryptostock/internal/models"
	"cryptostock/internal/validator"
)

// MarketSource is the market data the overview pages read.
type MarketSource interface {
	TopMarkets(ctx context.Context, perPage int) ([]market.Quote, error)
	History(ctx context.Context, id string, r market.Range) ([]market.PricePoint, error)
}

// MarketsQuery holds the query parameters of the market overview.
type MarketsQuery struct {
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// MarketsResponse is the market overview page.
type MarketsResponse struct {
	Markets []market.Quote `json:"markets"`
	Summary market.Summary `json:"summary"`
}

// HistoryResponse is a price history series for one asset.
type HistoryResponse struct {
	ID     string              `json:"id"`
	Range  market.Range        `json:"range"`
	Points []market.PricePoint `json:"points"`
}

// MarketHandler serves the market overview and price history.
type MarketHandler struct {
	markets MarketSource
	perPage int
}

// NewMarketHandler creates a new MarketHandler. perPage is the page size used
// when the client sends none.
func NewMarketHandler(markets MarketSource, perPage int) *MarketHandler {
	return &MarketHandler{markets: markets, perPage: perPage}
}

// GetMarkets handles retrieving the top assets by market cap
// @Summary     List top markets
// @Description Get the first page of assets by market cap with a total market cap and mean 24h change summary
// @Tags        markets
// @Produce     json
// @Security    BearerAuth
// @Param       per_page query int false "Page size (1-100)"
// @Success     200 {object} MarketsResponse "Markets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Market data unavailable"
// @Router      /markets [get]
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	var query MarketsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if query.PerPage == 0 {
		query.PerPage = h.perPage
	}

	quotes, err := h.markets.TopMarkets(c.Request.Context(), query.PerPage)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MarketsResponse{Markets: quotes, Summary: market.Summarize(quotes)})
}

// GetHistory handles retrieving an asset's price history
// @Summary     Get price history
// @Description Get the price series of an asset. 1M is daily; 6M and 1Y are monthly averages.
// @Tags        markets
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string true  "Asset ID"
// @Param       range query string false "Range (1M, 6M, 1Y)"
// @Success     200 {object} HistoryResponse "Price history"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Unknown asset"
// @Failure     503 {object} ErrorResponse "Market data unavailable"
// @Router      /markets/{id}/history [get]
func (h *MarketHandler) GetHistory(c *gin.Context) {
	id := models.NormalizeAssetID(c.Param("id"))
	if !validator.IsAssetID(id) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid asset ID"))
		return
	}

	r, err := market.ParseRange(c.Query("range"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	points, err := h.markets.History(c.Request.Context(), id, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{ID: id, Range: r, Points: points})
}
