package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cryptostock/internal/logger"
	"cryptostock/internal/metrics"
	"cryptostock/internal/uuid"
)

const (
	// RequestIDKey holds the request id in the Gin context.
	RequestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// quietPaths are probed constantly and only logged at debug.
var quietPaths = map[string]bool{
	"/metrics":    true,
	"/api/health": true,
}

// RequestLogging tags each request with an id, records it in the HTTP
// metrics and logs it once it completes. A caller-supplied X-Request-ID is
// kept so ids follow a request from the dashboard into the ledger.
func RequestLogging() gin.HandlerFunc {
	log := logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if email := c.GetString(EmailKey); email != "" {
			fields = append(fields, "user", email)
		}

		switch {
		case quietPaths[c.Request.URL.Path]:
			log.Debugw("request", fields...)
		case status >= http.StatusInternalServerError:
			log.Errorw("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}
