// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"cryptostock/internal/models"
)

// assetIDRegex matches CoinGecko-style coin ids ("bitcoin", "usd-coin", "wrapped-steth").
var assetIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,99}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("trade_kind", validateTradeKind)
		_ = v.RegisterValidation("trade_status", validateTradeStatus)
		_ = v.RegisterValidation("asset_id", validateAssetID)
	}
}

// IsAssetID reports whether s is a well-formed asset identifier.
func IsAssetID(s string) bool {
	return assetIDRegex.MatchString(s)
}

func validateTradeKind(fl validator.FieldLevel) bool {
	return models.TradeKind(fl.Field().String()).Valid()
}

func validateTradeStatus(fl validator.FieldLevel) bool {
	return models.TradeStatus(fl.Field().String()).Valid()
}

func validateAssetID(fl validator.FieldLevel) bool {
	return IsAssetID(fl.Field().String())
}
