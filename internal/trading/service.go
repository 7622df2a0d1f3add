// Package trading executes simulated trades and cash movements against the
// ledger backend.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptostock/internal/engine"
	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
	"cryptostock/internal/market"
	"cryptostock/internal/models"
)

// CashAssetID is the asset id recorded on DEPOSIT and WITHDRAW entries.
const CashAssetID = "usd"

// Ledger is the subset of the ledger backend the trade flow writes to.
type Ledger interface {
	GetHoldingsSnapshot(ctx context.Context, user string) (models.HoldingsSnapshot, error)
	GetWallet(ctx context.Context, user string) (*models.WalletBalance, error)
	AppendTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error)
	UpdatePortfolio(ctx context.Context, trade *models.Trade) error
	UpdateWallet(ctx context.Context, balance models.WalletBalance) error
}

// Order is a user's trade request. BUY and SELL use AssetID and Quantity;
// DEPOSIT and WITHDRAW use Amount.
type Order struct {
	Kind     models.TradeKind `json:"type" binding:"required,trade_kind"`
	AssetID  string           `json:"coinId"`
	Quantity float64          `json:"quantity"`
	Amount   float64          `json:"amount"`
}

// Service executes orders. Orders of one user run one at a time, so the
// balance check and the wallet write cannot interleave with another order.
// The lock is per process; several dashboard instances sharing one ledger
// are not serialized against each other.
type Service struct {
	ledger Ledger
	prices engine.PriceSource
	logger *zap.SugaredLogger
	now    func() time.Time

	locks sync.Map // user -> *sync.Mutex
}

// NewService creates a trade service.
func NewService(ledger Ledger, prices engine.PriceSource) *Service {
	return &Service{
		ledger: ledger,
		prices: prices,
		logger: logger.Named("trading"),
		now:    time.Now,
	}
}

// Validate checks an order before any backend call is made.
func (o Order) Validate() error {
	switch o.Kind {
	case models.TradeKindBuy, models.TradeKindSell:
		if models.NormalizeAssetID(o.AssetID) == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "coinId is required")
		}
		if o.Quantity <= 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
		}
	case models.TradeKindDeposit, models.TradeKindWithdraw:
		if o.Amount <= 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
		}
	default:
		return apperrors.ErrInvalidTradeKind
	}
	return nil
}

// Execute validates and records an order: it appends the trade, applies it to
// the holdings for BUY and SELL, and writes the new wallet balance. The
// backend balance is read fresh for every order.
func (s *Service) Execute(ctx context.Context, user string, order Order) (*models.Trade, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	mu := s.userLock(user)
	mu.Lock()
	defer mu.Unlock()

	trade := &models.Trade{
		Email:  user,
		Kind:   order.Kind,
		Status: models.TradeStatusCompleted,
		Date:   s.now().UTC(),
	}

	var total decimal.Decimal
	if order.Kind.MovesAsset() {
		id := models.NormalizeAssetID(order.AssetID)
		quote, err := s.price(ctx, id)
		if err != nil {
			return nil, err
		}
		price := decimal.NewFromFloat(quote.CurrentPrice)
		total = decimal.NewFromFloat(order.Quantity).Mul(price)

		trade.AssetID = id
		trade.AssetName = quote.Name
		trade.Quantity = order.Quantity
		trade.UnitPrice = quote.CurrentPrice
	} else {
		total = decimal.NewFromFloat(order.Amount)

		trade.AssetID = CashAssetID
		trade.AssetName = "US Dollar"
		trade.Quantity = order.Amount
		trade.UnitPrice = 1
	}
	trade.Total = total.InexactFloat64()

	balance, err := s.balance(ctx, user)
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	switch order.Kind {
	case models.TradeKindBuy, models.TradeKindWithdraw:
		if balance.LessThan(total) {
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientFunds,
				fmt.Sprintf("Insufficient wallet balance: %s available, %s required", balance.StringFixed(2), total.StringFixed(2)))
		}
		newBalance = balance.Sub(total)
	case models.TradeKindSell:
		held, err := s.heldQuantity(ctx, user, trade.AssetID)
		if err != nil {
			return nil, err
		}
		if held < order.Quantity {
			return nil, apperrors.ErrInsufficientHoldings
		}
		newBalance = balance.Add(total)
	default:
		newBalance = balance.Add(total)
	}

	stored, err := s.ledger.AppendTrade(ctx, trade)
	if err != nil {
		return nil, fmt.Errorf("appending trade: %w", err)
	}
	if order.Kind.MovesAsset() {
		if err := s.ledger.UpdatePortfolio(ctx, stored); err != nil {
			s.logger.Errorw("trade recorded but holdings not updated", "user", user, "trade_id", stored.ID, "error", err)
			return nil, fmt.Errorf("updating portfolio: %w", err)
		}
	}
	update := models.WalletBalance{Email: user, BalanceUSD: newBalance.Round(2).InexactFloat64()}
	if err := s.ledger.UpdateWallet(ctx, update); err != nil {
		s.logger.Errorw("trade recorded but wallet not updated", "user", user, "trade_id", stored.ID, "error", err)
		return nil, fmt.Errorf("updating wallet: %w", err)
	}

	s.logger.Infow("trade executed",
		"user", user,
		"trade_id", stored.ID,
		"type", stored.Kind,
		"asset", stored.AssetID,
		"total", stored.Total,
		"balance", update.BalanceUSD,
	)
	return stored, nil
}

func (s *Service) userLock(user string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(user, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// price resolves the current price through the batch quote first and the
// single-asset lookup second.
func (s *Service) price(ctx context.Context, id string) (*market.Quote, error) {
	quotes, err := s.prices.GetQuotes(ctx, []string{id})
	if err == nil {
		if q, ok := quotes[id]; ok && q.CurrentPrice > 0 {
			return &q, nil
		}
	} else {
		s.logger.Infow("batch quote failed, trying single lookup", "asset", id, "error", err)
	}

	q, err := s.prices.GetQuote(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceUnavailable, err)
	}
	if q == nil || q.CurrentPrice <= 0 {
		return nil, apperrors.ErrPriceUnavailable
	}
	return q, nil
}

func (s *Service) balance(ctx context.Context, user string) (decimal.Decimal, error) {
	wallet, err := s.ledger.GetWallet(ctx, user)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrWalletNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("reading wallet: %w", err)
	}
	return decimal.NewFromFloat(wallet.BalanceUSD), nil
}

func (s *Service) heldQuantity(ctx context.Context, user, id string) (float64, error) {
	snapshot, err := s.ledger.GetHoldingsSnapshot(ctx, user)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrPortfolioNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading holdings: %w", err)
	}

	var held float64
	for key, qty := range snapshot {
		if models.NormalizeAssetID(key) == id {
			held += qty
		}
	}
	return held, nil
}
