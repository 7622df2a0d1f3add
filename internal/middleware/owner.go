package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
)

// RequireOwner rejects requests whose path parameter names a different user
// than the authenticated one. It must run after AuthMiddleware.
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(EmailKey)
		if email == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !strings.EqualFold(c.Param(param), email) {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
