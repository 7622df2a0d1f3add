package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostock/internal/engine"
	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/market"
	"cryptostock/internal/models"
)

type mockLedger struct {
	snapshot     models.HoldingsSnapshot
	snapshotErr  error
	wallet       *models.WalletBalance
	walletErr    error
	appendErr    error
	portfolioErr error
	updateErr    error

	appended        []*models.Trade
	portfolioTrades []*models.Trade
	walletUpdates   []models.WalletBalance
	calls           []string
}

var _ Ledger = (*mockLedger)(nil)

func (m *mockLedger) GetHoldingsSnapshot(context.Context, string) (models.HoldingsSnapshot, error) {
	m.calls = append(m.calls, "snapshot")
	return m.snapshot, m.snapshotErr
}

func (m *mockLedger) GetWallet(context.Context, string) (*models.WalletBalance, error) {
	m.calls = append(m.calls, "wallet")
	if m.walletErr != nil {
		return nil, m.walletErr
	}
	return m.wallet, nil
}

func (m *mockLedger) AppendTrade(_ context.Context, trade *models.Trade) (*models.Trade, error) {
	m.calls = append(m.calls, "append")
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	stored := *trade
	stored.ID = "trade-1"
	m.appended = append(m.appended, &stored)
	return &stored, nil
}

func (m *mockLedger) UpdatePortfolio(_ context.Context, trade *models.Trade) error {
	m.calls = append(m.calls, "portfolio")
	m.portfolioTrades = append(m.portfolioTrades, trade)
	return m.portfolioErr
}

func (m *mockLedger) UpdateWallet(_ context.Context, balance models.WalletBalance) error {
	m.calls = append(m.calls, "wallet_update")
	m.walletUpdates = append(m.walletUpdates, balance)
	return m.updateErr
}

type mockPrices struct {
	batch    map[string]market.Quote
	batchErr error
	single   *market.Quote
	err      error
}

var _ engine.PriceSource = (*mockPrices)(nil)

func (m *mockPrices) GetQuotes(context.Context, []string) (map[string]market.Quote, error) {
	return m.batch, m.batchErr
}

func (m *mockPrices) GetQuote(context.Context, string) (*market.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.single == nil {
		return nil, apperrors.ErrQuoteNotFound
	}
	return m.single, nil
}

var tradeTime = time.Date(2024, 4, 2, 15, 30, 0, 0, time.UTC)

func newService(ledger *mockLedger, prices *mockPrices) *Service {
	s := NewService(ledger, prices)
	s.now = func() time.Time { return tradeTime }
	return s
}

func btcPrices(price float64) *mockPrices {
	return &mockPrices{batch: map[string]market.Quote{
		"bitcoin": {ID: "bitcoin", Name: "Bitcoin", CurrentPrice: price},
	}}
}

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		code  string
	}{
		{"buy_missing_asset", Order{Kind: models.TradeKindBuy, Quantity: 1}, "INVALID_INPUT"},
		{"buy_zero_quantity", Order{Kind: models.TradeKindBuy, AssetID: "bitcoin"}, "INVALID_INPUT"},
		{"sell_negative_quantity", Order{Kind: models.TradeKindSell, AssetID: "bitcoin", Quantity: -1}, "INVALID_INPUT"},
		{"deposit_zero_amount", Order{Kind: models.TradeKindDeposit}, "INVALID_INPUT"},
		{"withdraw_negative_amount", Order{Kind: models.TradeKindWithdraw, Amount: -5}, "INVALID_INPUT"},
		{"unknown_kind", Order{Kind: "SHORT", AssetID: "bitcoin", Quantity: 1}, "INVALID_TRADE_KIND"},
		{"valid_buy", Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 0.1}, ""},
		{"valid_deposit", Order{Kind: models.TradeKindDeposit, Amount: 100}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestExecute_InvalidOrderMakesNoCalls(t *testing.T) {
	ledger := &mockLedger{}
	_, err := newService(ledger, btcPrices(100)).Execute(context.Background(), "alice@example.com",
		Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 0})

	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Empty(t, ledger.calls)
}

func TestExecute_Buy(t *testing.T) {
	ledger := &mockLedger{wallet: &models.WalletBalance{Email: "alice@example.com", BalanceUSD: 10000}}
	s := newService(ledger, btcPrices(25000))

	trade, err := s.Execute(context.Background(), "alice@example.com",
		Order{Kind: models.TradeKindBuy, AssetID: " Bitcoin ", Quantity: 0.1})
	require.NoError(t, err)

	assert.Equal(t, "trade-1", trade.ID)
	assert.Equal(t, "bitcoin", trade.AssetID)
	assert.Equal(t, "Bitcoin", trade.AssetName)
	assert.Equal(t, 25000.0, trade.UnitPrice)
	assert.Equal(t, 2500.0, trade.Total)
	assert.Equal(t, models.TradeStatusCompleted, trade.Status)
	assert.Equal(t, tradeTime, trade.Date)

	assert.Equal(t, []string{"wallet", "append", "portfolio", "wallet_update"}, ledger.calls)
	require.Len(t, ledger.walletUpdates, 1)
	assert.Equal(t, models.WalletBalance{Email: "alice@example.com", BalanceUSD: 7500}, ledger.walletUpdates[0])
	require.Len(t, ledger.portfolioTrades, 1)
	assert.Equal(t, "trade-1", ledger.portfolioTrades[0].ID)
}

func TestExecute_BuyInsufficientFunds(t *testing.T) {
	ledger := &mockLedger{wallet: &models.WalletBalance{BalanceUSD: 100}}

	_, err := newService(ledger, btcPrices(25000)).Execute(context.Background(), "alice@example.com",
		Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})

	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientFunds))
	assert.Empty(t, ledger.appended)
	assert.Empty(t, ledger.walletUpdates)
}

func TestExecute_MissingWalletIsZeroBalance(t *testing.T) {
	ledger := &mockLedger{walletErr: apperrors.ErrWalletNotFound}

	_, err := newService(ledger, btcPrices(1)).Execute(context.Background(), "new@example.com",
		Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientFunds))

	trade, err := newService(ledger, btcPrices(1)).Execute(context.Background(), "new@example.com",
		Order{Kind: models.TradeKindDeposit, Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, CashAssetID, trade.AssetID)
	assert.Equal(t, 50.0, ledger.walletUpdates[0].BalanceUSD)
}

func TestExecute_Sell(t *testing.T) {
	ledger := &mockLedger{
		snapshot: models.HoldingsSnapshot{"BITCOIN": 0.5},
		wallet:   &models.WalletBalance{BalanceUSD: 10.01},
	}

	trade, err := newService(ledger, btcPrices(30000)).Execute(context.Background(), "alice@example.com",
		Order{Kind: models.TradeKindSell, AssetID: "bitcoin", Quantity: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 15000.0, trade.Total)
	assert.Equal(t, []string{"wallet", "snapshot", "append", "portfolio", "wallet_update"}, ledger.calls)
	assert.Equal(t, 15010.01, ledger.walletUpdates[0].BalanceUSD)
}

func TestExecute_SellInsufficientHoldings(t *testing.T) {
	tests := []struct {
		name   string
		ledger *mockLedger
	}{
		{"holds_less", &mockLedger{snapshot: models.HoldingsSnapshot{"bitcoin": 0.2}, wallet: &models.WalletBalance{}}},
		{"no_portfolio", &mockLedger{snapshotErr: apperrors.ErrPortfolioNotFound, wallet: &models.WalletBalance{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(tt.ledger, btcPrices(30000)).Execute(context.Background(), "alice@example.com",
				Order{Kind: models.TradeKindSell, AssetID: "bitcoin", Quantity: 0.5})
			assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientHoldings))
			assert.Empty(t, tt.ledger.appended)
		})
	}
}

func TestExecute_PriceResolution(t *testing.T) {
	t.Run("falls_back_to_single_lookup", func(t *testing.T) {
		ledger := &mockLedger{wallet: &models.WalletBalance{BalanceUSD: 1000}}
		prices := &mockPrices{
			batch:  map[string]market.Quote{},
			single: &market.Quote{ID: "obscurecoin", Name: "Obscure", CurrentPrice: 2.5},
		}

		trade, err := newService(ledger, prices).Execute(context.Background(), "alice@example.com",
			Order{Kind: models.TradeKindBuy, AssetID: "obscurecoin", Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, 10.0, trade.Total)
		assert.Equal(t, "Obscure", trade.AssetName)
	})

	t.Run("batch_error_falls_back", func(t *testing.T) {
		ledger := &mockLedger{wallet: &models.WalletBalance{BalanceUSD: 1000}}
		prices := &mockPrices{
			batchErr: errors.New("timeout"),
			single:   &market.Quote{ID: "bitcoin", CurrentPrice: 100},
		}

		_, err := newService(ledger, prices).Execute(context.Background(), "alice@example.com",
			Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})
		require.NoError(t, err)
	})

	t.Run("no_price_anywhere", func(t *testing.T) {
		ledger := &mockLedger{wallet: &models.WalletBalance{BalanceUSD: 1000}}
		prices := &mockPrices{batch: map[string]market.Quote{}}

		_, err := newService(ledger, prices).Execute(context.Background(), "alice@example.com",
			Order{Kind: models.TradeKindBuy, AssetID: "ghostcoin", Quantity: 1})
		assert.True(t, apperrors.Is(err, apperrors.ErrPriceUnavailable))
		assert.Empty(t, ledger.calls)
	})
}

func TestExecute_Withdraw(t *testing.T) {
	ledger := &mockLedger{wallet: &models.WalletBalance{BalanceUSD: 100.10}}
	s := newService(ledger, &mockPrices{})

	_, err := s.Execute(context.Background(), "alice@example.com", Order{Kind: models.TradeKindWithdraw, Amount: 200})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientFunds))

	trade, err := s.Execute(context.Background(), "alice@example.com", Order{Kind: models.TradeKindWithdraw, Amount: 0.1})
	require.NoError(t, err)
	assert.Equal(t, models.TradeKindWithdraw, trade.Kind)
	assert.NotContains(t, ledger.calls, "portfolio")
	assert.Equal(t, 100.0, ledger.walletUpdates[0].BalanceUSD)
}

func TestExecute_BackendFailuresStopTheSequence(t *testing.T) {
	t.Run("append_fails", func(t *testing.T) {
		ledger := &mockLedger{
			wallet:    &models.WalletBalance{BalanceUSD: 1000},
			appendErr: apperrors.ErrSourceUnavailable,
		}
		_, err := newService(ledger, btcPrices(10)).Execute(context.Background(), "alice@example.com",
			Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})
		assert.True(t, apperrors.Is(err, apperrors.ErrSourceUnavailable))
		assert.NotContains(t, ledger.calls, "portfolio")
		assert.NotContains(t, ledger.calls, "wallet_update")
	})

	t.Run("portfolio_update_fails", func(t *testing.T) {
		ledger := &mockLedger{
			wallet:       &models.WalletBalance{BalanceUSD: 1000},
			portfolioErr: apperrors.ErrInsufficientHoldings,
		}
		_, err := newService(ledger, btcPrices(10)).Execute(context.Background(), "alice@example.com",
			Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})
		assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientHoldings))
		assert.NotContains(t, ledger.calls, "wallet_update")
	})
}

// walletLedger keeps one user's balance and appended trades behind a mutex.
// GetWallet pauses so concurrent orders overlap between read and write.
type walletLedger struct {
	mu       sync.Mutex
	balance  float64
	appended int
}

var _ Ledger = (*walletLedger)(nil)

func (l *walletLedger) GetHoldingsSnapshot(context.Context, string) (models.HoldingsSnapshot, error) {
	return models.HoldingsSnapshot{}, nil
}

func (l *walletLedger) GetWallet(_ context.Context, user string) (*models.WalletBalance, error) {
	l.mu.Lock()
	balance := l.balance
	l.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	return &models.WalletBalance{Email: user, BalanceUSD: balance}, nil
}

func (l *walletLedger) AppendTrade(_ context.Context, trade *models.Trade) (*models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appended++
	stored := *trade
	return &stored, nil
}

func (l *walletLedger) UpdatePortfolio(context.Context, *models.Trade) error { return nil }

func (l *walletLedger) UpdateWallet(_ context.Context, balance models.WalletBalance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = balance.BalanceUSD
	return nil
}

func TestExecute_ConcurrentOrdersCannotOverspend(t *testing.T) {
	ledger := &walletLedger{balance: 100}
	s := newService(nil, btcPrices(60))
	s.ledger = ledger

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Execute(context.Background(), "alice@example.com",
				Order{Kind: models.TradeKindBuy, AssetID: "bitcoin", Quantity: 1})
		}()
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientFunds), "unexpected error: %v", err)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, ledger.appended)
	assert.Equal(t, 40.0, ledger.balance)
}
