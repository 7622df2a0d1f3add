package models

import (
	"strings"
	"time"

	"cryptostock/internal/uuid"

	"gorm.io/gorm"
)

// TradeKind is the type of a ledger entry.
type TradeKind string

const (
	TradeKindBuy      TradeKind = "BUY"
	TradeKindSell     TradeKind = "SELL"
	TradeKindDeposit  TradeKind = "DEPOSIT"
	TradeKindWithdraw TradeKind = "WITHDRAW"
)

// Valid reports whether k is a known trade kind.
func (k TradeKind) Valid() bool {
	switch k {
	case TradeKindBuy, TradeKindSell, TradeKindDeposit, TradeKindWithdraw:
		return true
	}
	return false
}

// MovesAsset reports whether the kind changes an asset position (BUY/SELL)
// rather than only the cash balance.
func (k TradeKind) MovesAsset() bool {
	return k == TradeKindBuy || k == TradeKindSell
}

// TradeStatus is the settlement state of a ledger entry.
type TradeStatus string

const (
	TradeStatusCompleted TradeStatus = "Completed"
	TradeStatusPending   TradeStatus = "Pending"
	TradeStatusFailed    TradeStatus = "Failed"
)

// Valid reports whether s is a known trade status.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusCompleted, TradeStatusPending, TradeStatusFailed:
		return true
	}
	return false
}

// Trade is an immutable ledger entry. JSON names follow the ledger backend
// wire format (coinId, coinName, type, price, date).
// Trades are append-only, so there is no Base embed.
type Trade struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string      `gorm:"not null;index" json:"email"`
	AssetID   string      `gorm:"column:coin_id;index" json:"coinId"`
	AssetName string      `gorm:"column:coin_name" json:"coinName"`
	Kind      TradeKind   `gorm:"column:kind;not null" json:"type"`
	Quantity  float64     `gorm:"not null;default:0" json:"quantity"`
	UnitPrice float64     `gorm:"column:price;not null;default:0" json:"price"`
	Total     float64     `gorm:"not null" json:"total"`
	Status    TradeStatus `gorm:"not null" json:"status"`
	Date      time.Time   `gorm:"not null;index" json:"date"`
	CreatedAt time.Time   `json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new trades
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}

// NormalizeAssetID canonicalizes an asset identifier so snapshot keys and
// trade coin ids compare equal regardless of case or padding.
func NormalizeAssetID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
