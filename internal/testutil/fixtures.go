package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cryptostock/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// UniqueEmail returns an email address no other fixture has used.
func UniqueEmail() string {
	return fmt.Sprintf("user%d@test.com", nextID())
}

// CreateTestHolding creates a holding row for the given user and asset.
func CreateTestHolding(t *testing.T, db *gorm.DB, email, assetID string, quantity float64) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		Email:     email,
		AssetID:   assetID,
		AssetName: assetID,
		Quantity:  quantity,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestWallet creates a wallet with the given balance in dollars.
func CreateTestWallet(t *testing.T, db *gorm.DB, email string, balance float64) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		Email:      email,
		BalanceUSD: decimal.NewFromFloat(balance),
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestTrade creates a completed trade dated offset hours after a fixed
// reference time.
func CreateTestTrade(t *testing.T, db *gorm.DB, email string, kind models.TradeKind, assetID string, quantity, price float64, offset int) *models.Trade {
	t.Helper()
	return CreateTestTradeWithStatus(t, db, email, kind, assetID, quantity, price, models.TradeStatusCompleted, offset)
}

// CreateTestTradeWithStatus creates a trade with the given status.
func CreateTestTradeWithStatus(t *testing.T, db *gorm.DB, email string, kind models.TradeKind, assetID string, quantity, price float64, status models.TradeStatus, offset int) *models.Trade {
	t.Helper()

	trade := &models.Trade{
		Email:     email,
		AssetID:   assetID,
		AssetName: assetID,
		Kind:      kind,
		Quantity:  quantity,
		UnitPrice: price,
		Total:     quantity * price,
		Status:    status,
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Hour),
	}
	if err := db.Create(trade).Error; err != nil {
		t.Fatalf("failed to create test trade: %v", err)
	}
	return trade
}
