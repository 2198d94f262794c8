package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pocketledger/internal/logger"
)

const requestIDKey = "requestID"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// RequestLogging returns a Gin middleware that logs each request with a unique
// request ID, method, path, status code, latency, and client IP using Zap.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = newRequestID()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		log := logger.Get().With("request_id", requestID)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), log))

		c.Next()

		latency := time.Since(start)
		if len(c.Errors) > 0 {
			log = log.With("errors", c.Errors.String())
		}
		log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// newRequestID returns a time-ordered UUIDv7, falling back to a random v4.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RequestID returns the id assigned to the current request.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
