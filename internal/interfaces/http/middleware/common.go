package middleware

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Request ID keys: the header carried on the wire and the gin context key
// read by the request logger.
const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

const maxRequestIDLength = 128

// RequestID propagates a caller supplied X-Request-ID or assigns a new one.
// Supplied ids that are too long or contain non printable bytes are
// replaced so they cannot corrupt log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = generateRequestID()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDHeader)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// generateRequestID returns a time ordered UUIDv7 as 32 hex characters, so
// ids sort by arrival in log search
func generateRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return hex.EncodeToString(id[:])
}

// Timeout bounds every request with a context deadline. Downstream GORM,
// Redis and S3 calls observe it; a handler that overruns answers 504 unless
// it has already written a response.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-Timeout", timeout.String())

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout,
				dto.NewRetryableErrorResponse(dto.ErrCodeTimeout, "Request timed out", GetRequestID(c)))
		}
	}
}
