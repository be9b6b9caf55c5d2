package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scopeKey struct{}

// scope is the request state carried on a context for logging. The logger
// already has request_id, user_id and role attached as fields; the raw
// values are kept for code that logs through another logger, such as GORM.
type scope struct {
	logger    *zap.Logger
	requestID string
	userID    string
	role      string
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithContext attaches logger to ctx, keeping any request or user ids
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	s := scopeOf(ctx)
	s.logger = logger
	return withScope(ctx, s)
}

// FromContext returns the request logger, or a no-op logger outside a request
func FromContext(ctx context.Context) *zap.Logger {
	if l := scopeOf(ctx).logger; l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and attaches a logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	s := scopeOf(ctx)
	s.requestID = requestID
	s.logger = logger.With(zap.String("request_id", requestID))
	return withScope(ctx, s), s.logger
}

// WithUser records the authenticated caller once the token is verified
func WithUser(ctx context.Context, logger *zap.Logger, userID, role string) (context.Context, *zap.Logger) {
	s := scopeOf(ctx)
	s.userID, s.role = userID, role
	s.logger = logger.With(zap.String("user_id", userID), zap.String("role", role))
	return withScope(ctx, s), s.logger
}

func GetRequestID(ctx context.Context) string { return scopeOf(ctx).requestID }

func GetUserID(ctx context.Context) string { return scopeOf(ctx).userID }

// GetTraceID returns the hex trace id of the active span, if any
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// Ctx returns the request logger with trace_id and span_id of the active
// span added, so entries can be joined with the exported traces.
//
//	logger.Ctx(ctx).Warn("Stock exhausted", zap.String("item_id", id))
func Ctx(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
