package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/middleware"
	"cryptostock/internal/models"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getEmail extracts the authenticated user's email from the Gin context.
// Returns ErrUnauthorized if not present.
func getEmail(c *gin.Context) (string, error) {
	email := c.GetString(middleware.EmailKey)
	if email == "" {
		return "", apperrors.ErrUnauthorized
	}
	return email, nil
}

// authorizeUser returns the authenticated email when it names the same user
// as target. An empty target means the caller's own data.
func authorizeUser(c *gin.Context, target string) (string, error) {
	email, err := getEmail(c)
	if err != nil {
		return "", err
	}
	if target != "" && !strings.EqualFold(target, email) {
		return "", apperrors.ErrForbidden
	}
	return email, nil
}

// parseStatusFilter parses the history status filter. Empty and "All" select
// every status.
func parseStatusFilter(raw string) (*models.TradeStatus, error) {
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	status := models.TradeStatus(raw)
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status filter")
	}
	return &status, nil
}

// respondWithError writes a consistent JSON error response through the
// shared error writer.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}
