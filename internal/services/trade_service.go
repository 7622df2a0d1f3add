package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/events"
	"cryptostock/internal/logger"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
)

const publishTimeout = 5 * time.Second

// tradeService handles the append-only trade ledger.
type tradeService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

// NewTradeService creates a new TradeServicer. Recorded trades are published
// through publisher.
func NewTradeService(db *gorm.DB, publisher events.Publisher) TradeServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &tradeService{db: db, publisher: publisher, now: time.Now}
}

// RecordTrade validates and appends a trade. The id and date are assigned when
// missing and the status defaults to Completed.
func (s *tradeService) RecordTrade(trade *models.Trade) (*models.Trade, error) {
	if trade.Email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}
	if !trade.Kind.Valid() {
		return nil, apperrors.ErrInvalidTradeKind
	}
	if trade.Status == "" {
		trade.Status = models.TradeStatusCompleted
	}
	if !trade.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown trade status")
	}
	if trade.Quantity < 0 || trade.UnitPrice < 0 || trade.Total < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity, price and total must not be negative")
	}
	trade.AssetID = models.NormalizeAssetID(trade.AssetID)
	if trade.Kind.MovesAsset() && (trade.AssetID == "" || trade.Quantity <= 0) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "BUY and SELL need a coinId and a positive quantity")
	}
	if trade.Date.IsZero() {
		trade.Date = s.now().UTC()
	}

	if err := s.db.Create(trade).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishTrade(ctx, trade); err != nil {
		// The ledger row is the record; a lost event is only logged.
		logger.Get().Warnw("trade recorded without event", "trade_id", trade.ID, "error", err)
	}

	return trade, nil
}

// GetTrades returns the user's full trade ledger, oldest first.
func (s *tradeService) GetTrades(email string) ([]models.Trade, error) {
	trades := []models.Trade{}
	if err := s.db.Where("email = ?", email).Order("date ASC, id ASC").Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return trades, nil
}

// GetHistory returns a page of the user's trades, newest first, optionally
// filtered by status.
func (s *tradeService) GetHistory(email string, status *models.TradeStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error) {
	page.Defaults()

	base := s.db.Model(&models.Trade{}).Where("email = ?", email)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var trades []models.Trade
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(trades, page.Page, page.PageSize, totalItems)
	return &result, nil
}
