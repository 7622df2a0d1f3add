package models

import "github.com/shopspring/decimal"

// Wallet holds a user's cash balance. The ledger backend is the only writer;
// nothing recomputes the balance from trades.
type Wallet struct {
	Base
	Email      string          `gorm:"not null;uniqueIndex" json:"email"`
	BalanceUSD decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balanceUsd"`
}

// WalletBalance is the wire shape of GET /wallet/{user} and POST /wallet/update.
type WalletBalance struct {
	Email      string  `json:"email" binding:"required,email"`
	BalanceUSD float64 `json:"balanceUsd" binding:"gte=0"`
}

// Balance returns the wire representation of the wallet.
func (w *Wallet) Balance() WalletBalance {
	return WalletBalance{
		Email:      w.Email,
		BalanceUSD: w.BalanceUSD.InexactFloat64(),
	}
}
