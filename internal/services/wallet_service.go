package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
)

// walletService handles cash balances of record.
type walletService struct {
	db *gorm.DB
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db}
}

// GetWallet retrieves the user's wallet.
func (s *walletService) GetWallet(email string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("email = ?", email).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// SetBalance creates or overwrites the user's balance, rounded to cents.
func (s *walletService) SetBalance(email string, balance decimal.Decimal) (*models.Wallet, error) {
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}
	if balance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance must not be negative")
	}
	balance = balance.Round(2)

	var wallet models.Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			wallet = models.Wallet{Email: email, BalanceUSD: balance}
			if txErr := tx.Create(&wallet).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if txErr := tx.Model(&wallet).Update("balance_usd", balance).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		wallet.BalanceUSD = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}
