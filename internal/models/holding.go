package models

// Holding is the ledger's authoritative quantity of one asset for one user.
type Holding struct {
	Base
	Email     string  `gorm:"not null;uniqueIndex:idx_holdings_email_coin" json:"email"`
	AssetID   string  `gorm:"column:coin_id;not null;uniqueIndex:idx_holdings_email_coin" json:"coinId"`
	AssetName string  `gorm:"column:coin_name" json:"coinName"`
	Quantity  float64 `gorm:"not null;default:0" json:"quantity"`
}

// HoldingsSnapshot maps asset id to currently held quantity.
type HoldingsSnapshot map[string]float64

// NewHoldingsSnapshot builds a snapshot from holding rows. Rows for the same
// asset are summed.
func NewHoldingsSnapshot(holdings []Holding) HoldingsSnapshot {
	snapshot := make(HoldingsSnapshot, len(holdings))
	for _, h := range holdings {
		snapshot[h.AssetID] += h.Quantity
	}
	return snapshot
}
