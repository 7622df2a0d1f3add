// Package errors provides the error taxonomy shared by the dashboard API and
// the ledger backend. Every error that crosses a package boundary should be an
// AppError so handlers can respond consistently without leaking internals.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Is reports whether any AppError in err's chain carries the sentinel's code.
// Wrapped and re-messaged copies match their sentinel.
func Is(err error, sentinel *AppError) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == sentinel.Code {
			return true
		}
		err = appErr.Internal
	}
	return false
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Reconciliation errors.
var (
	// ErrSourceUnavailable aborts a reconciliation cycle. The next scheduled
	// cycle is the retry.
	ErrSourceUnavailable = &AppError{Code: "SOURCE_UNAVAILABLE", Message: "A data source is unavailable", StatusCode: http.StatusServiceUnavailable}
	// ErrPartialPriceData marks holdings that could not be priced. It is
	// reported per asset and never aborts a cycle.
	ErrPartialPriceData  = &AppError{Code: "PARTIAL_PRICE_DATA", Message: "Some holdings could not be priced", StatusCode: http.StatusOK}
)

// Ledger errors.
var (
	ErrPortfolioNotFound    = &AppError{Code: "PORTFOLIO_NOT_FOUND", Message: "Portfolio not found", StatusCode: http.StatusNotFound}
	ErrWalletNotFound       = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrInsufficientFunds    = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient wallet balance", StatusCode: http.StatusBadRequest}
	ErrInsufficientHoldings = &AppError{Code: "INSUFFICIENT_HOLDINGS", Message: "Insufficient holdings for this sale", StatusCode: http.StatusBadRequest}
	ErrInvalidTradeKind     = &AppError{Code: "INVALID_TRADE_KIND", Message: "Unsupported trade type", StatusCode: http.StatusBadRequest}
)

// Market data errors.
var (
	ErrQuoteNotFound    = &AppError{Code: "QUOTE_NOT_FOUND", Message: "No market data for asset", StatusCode: http.StatusNotFound}
	ErrPriceUnavailable = &AppError{Code: "PRICE_UNAVAILABLE", Message: "Current price is unavailable", StatusCode: http.StatusServiceUnavailable}
)
