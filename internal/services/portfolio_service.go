package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/models"
)

// quantityEpsilon absorbs float rounding when a sale empties a position.
const quantityEpsilon = 1e-12

// portfolioService maintains the per-asset quantities of record.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// GetHoldings returns every holding row for a user, ordered by asset.
func (s *portfolioService) GetHoldings(email string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Where("email = ?", email).Order("coin_id ASC").Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holdings, nil
}

// GetSnapshot returns the user's quantities keyed by asset id. A user with no
// holding rows has no portfolio.
func (s *portfolioService) GetSnapshot(email string) (models.HoldingsSnapshot, error) {
	holdings, err := s.GetHoldings(email)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, apperrors.ErrPortfolioNotFound
	}
	return models.NewHoldingsSnapshot(holdings), nil
}

// ApplyTrade adds a BUY to or subtracts a SELL from the matching holding.
// A sale larger than the held quantity is rejected and changes nothing.
func (s *portfolioService) ApplyTrade(trade *models.Trade) (*models.Holding, error) {
	if !trade.Kind.MovesAsset() {
		return nil, apperrors.ErrInvalidTradeKind
	}
	assetID := models.NormalizeAssetID(trade.AssetID)
	if assetID == "" || trade.Email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and coinId are required")
	}
	if trade.Quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}

	var holding models.Holding
	err := s.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("email = ? AND coin_id = ?", trade.Email, assetID).First(&holding).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, findErr)
		}
		exists := findErr == nil

		switch trade.Kind {
		case models.TradeKindBuy:
			if !exists {
				holding = models.Holding{
					Email:     trade.Email,
					AssetID:   assetID,
					AssetName: trade.AssetName,
					Quantity:  trade.Quantity,
				}
				if txErr := tx.Create(&holding).Error; txErr != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
				}
				return nil
			}
			res := tx.Model(&models.Holding{}).
				Where("id = ?", holding.ID).
				Update("quantity", gorm.Expr("quantity + ?", trade.Quantity))
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}

		case models.TradeKindSell:
			if !exists {
				return apperrors.ErrInsufficientHoldings
			}
			// Conditional update so concurrent sales cannot drive the quantity negative.
			res := tx.Model(&models.Holding{}).
				Where("id = ? AND quantity + ? >= ?", holding.ID, quantityEpsilon, trade.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", trade.Quantity))
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrInsufficientHoldings
			}
		}

		if holding.AssetName == "" && trade.AssetName != "" {
			if txErr := tx.Model(&models.Holding{}).Where("id = ?", holding.ID).Update("coin_name", trade.AssetName).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		if txErr := tx.First(&holding, "id = ?", holding.ID).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &holding, nil
}
