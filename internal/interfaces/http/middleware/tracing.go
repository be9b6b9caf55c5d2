// Package middleware provides the gin middleware chain of the FoodONtracks API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs copied into span attributes
const MaxRequestIDLength = 128

// Tracing returns the otelgin server span followed by a finisher that runs
// inside it. Span names follow "METHOD /route/:param". Once the chain has
// run the finisher records the request id and the caller, so actors set by
// per-route authentication are included, and marks 4xx/5xx spans as errors.
// Disabled tracing returns no handlers.
func Tracing(serviceName string, enabled bool) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), finishSpan}
}

func finishSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	annotateSpan(c, span)

	if status := c.Writer.Status(); status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func annotateSpan(c *gin.Context, span trace.Span) {
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id[:min(len(id), MaxRequestIDLength)]))
	}
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("user_id", actor.UserID.String()),
		attribute.String("user.role", actor.Role.String()),
	}
	if actor.RestaurantID != nil {
		attrs = append(attrs, attribute.String("restaurant_id", actor.RestaurantID.String()))
	}
	span.SetAttributes(attrs...)
}
