package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
)

// ErrorHandler returns a Gin middleware that renders the last error set on
// the context with WriteError, unless a handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError writes err as {"error":{"code","message"}}. An *AppError keeps
// its status and code; anything else becomes INTERNAL_ERROR so internals do
// not leak. Server-side failures are logged at error level, client errors
// only when they carry an internal cause.
func WriteError(c *gin.Context, err error) {
	appErr := apperrors.ErrInternalServer
	log := logger.Get().With(
		"request_id", c.GetString(RequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var target *apperrors.AppError
	switch {
	case errors.As(err, &target):
		appErr = target
		if appErr.Internal == nil {
			break
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.Errorw("request failed", "code", appErr.Code, "internal", appErr.Internal.Error())
		} else {
			log.Infow("request rejected", "code", appErr.Code, "internal", appErr.Internal.Error())
		}
	default:
		log.Errorw("unexpected error", "error", err.Error())
	}

	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}
