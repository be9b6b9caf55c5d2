package logger

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ginRequestIDKey is where the request id middleware leaves the id
const ginRequestIDKey = "request_id"

type requestLog struct {
	quiet []string
}

type RequestLogOption func(*requestLog)

// WithQuietRoutes logs successful requests to these routes at debug, so
// health probes do not flood the access log
func WithQuietRoutes(routes ...string) RequestLogOption {
	return func(r *requestLog) { r.quiet = append(r.quiet, routes...) }
}

// RequestLogger writes one access log entry per request and puts a
// request scoped logger on the request context for Ctx
func RequestLogger(base *zap.Logger, opts ...RequestLogOption) gin.HandlerFunc {
	var cfg requestLog
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx, log := WithRequestID(c.Request.Context(),
			base.With(zap.String("method", c.Request.Method)), c.GetString(ginRequestIDKey))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if id := GetUserID(c.Request.Context()); id != "" {
			fields = append(fields, zap.String("user_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		level := accessLevel(status)
		if level == zapcore.InfoLevel && slices.Contains(cfg.quiet, route) {
			level = zapcore.DebugLevel
		}
		log.Log(level, "HTTP Request", fields...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

type panicReply struct {
	Success bool `json:"success"`
	Error   struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// Recovery turns a handler panic into a logged stack trace and a 500 in
// the API error envelope. Nothing is written once the response has started.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString(ginRequestIDKey)
			log.Error("Panic recovered",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			var reply panicReply
			reply.Error.Code = "INTERNAL_ERROR"
			reply.Error.Message = "An internal error occurred"
			reply.Error.RequestID = requestID
			c.AbortWithStatusJSON(http.StatusInternalServerError, reply)
		}()
		c.Next()
	}
}
