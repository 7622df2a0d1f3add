package services

import (
	"github.com/shopspring/decimal"

	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
)

// PortfolioServicer defines the contract for the holdings of record.
type PortfolioServicer interface {
	GetSnapshot(email string) (models.HoldingsSnapshot, error)
	GetHoldings(email string) ([]models.Holding, error)
	ApplyTrade(trade *models.Trade) (*models.Holding, error)
}

// TradeServicer defines the contract for the append-only trade ledger.
type TradeServicer interface {
	RecordTrade(trade *models.Trade) (*models.Trade, error)
	GetTrades(email string) ([]models.Trade, error)
	GetHistory(email string, status *models.TradeStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error)
}

// WalletServicer defines the contract for cash balances.
type WalletServicer interface {
	GetWallet(email string) (*models.Wallet, error)
	SetBalance(email string, balance decimal.Decimal) (*models.Wallet, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(email, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	List(email string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
