package middleware

import (
	"fmt"
	"net/http"

	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes; zero disables it. A declared
// Content-Length over the cap is refused before the handler runs. Chunked
// bodies are cut off while reading and HandleValidationError turns the
// resulting *http.MaxBytesError into the same 413.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortBodyTooLarge(c, maxBytes)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func abortBodyTooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBodyTooLarge, fmt.Sprintf("Request body exceeds the %d byte limit", limit), GetRequestID(c)))
}
