package middleware

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTP server instrument names
const (
	MetricHTTPRequests       = "http_server_request_total"
	MetricHTTPDuration       = "http_server_request_duration_seconds"
	MetricHTTPRequestSize    = "http_server_request_size_bytes"
	MetricHTTPResponseSize   = "http_server_response_size_bytes"
	MetricHTTPActiveRequests = "http_server_active_requests"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware
type HTTPMetricsConfig struct {
	Meter   metric.Meter
	Enabled bool
	Logger  *zap.Logger
}

type httpMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestSize     metric.Float64Histogram
	responseSize    metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error

	if m.requestTotal, err = telemetry.NewCounter(meter, MetricHTTPRequests,
		"Total number of HTTP requests", "{request}"); err != nil {
		return nil, err
	}
	if m.requestDuration, err = telemetry.NewHistogram(meter, MetricHTTPDuration,
		"HTTP request latency distribution in seconds", "s", telemetry.HTTPDurationBuckets); err != nil {
		return nil, err
	}
	if m.requestSize, err = telemetry.NewHistogram(meter, MetricHTTPRequestSize,
		"HTTP request body size distribution in bytes", "By", telemetry.SizeBuckets); err != nil {
		return nil, err
	}
	if m.responseSize, err = telemetry.NewHistogram(meter, MetricHTTPResponseSize,
		"HTTP response body size distribution in bytes", "By", telemetry.SizeBuckets); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter(MetricHTTPActiveRequests,
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request count, latency and body sizes per route.
// It degrades to a pass-through when disabled or when instruments cannot be
// created.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Meter == nil {
		return passThrough
	}

	metrics, err := newHTTPMetrics(cfg.Meter)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return httpMetricsMiddleware(metrics)
}

// HTTPMetricsWithMeter returns HTTP metrics middleware using an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	return HTTPMetrics(HTTPMetricsConfig{Meter: meter, Enabled: enabled})
}

func passThrough(c *gin.Context) { c.Next() }

func httpMetricsMiddleware(metrics *httpMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		requestSize := c.Request.ContentLength

		metrics.activeRequests.Add(ctx, 1)
		defer metrics.activeRequests.Add(ctx, -1)

		c.Next()

		role := ""
		if actor, ok := GetActor(c); ok {
			role = actor.Role.String()
		}

		recordHTTPMetrics(ctx, metrics, requestSample{
			method:       c.Request.Method,
			route:        getRoutePattern(c),
			status:       c.Writer.Status(),
			role:         role,
			duration:     time.Since(start),
			requestSize:  requestSize,
			responseSize: c.Writer.Size(),
		})
	}
}

type requestSample struct {
	method       string
	route        string
	status       int
	role         string
	duration     time.Duration
	requestSize  int64
	responseSize int
}

func recordHTTPMetrics(ctx context.Context, metrics *httpMetrics, s requestSample) {
	// Counter carries status and role; histograms stay on method and route.
	requestAttrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(s.method),
		telemetry.AttrHTTPRoute.String(s.route),
		telemetry.AttrHTTPStatusCode.Int(s.status),
	}
	if s.role != "" {
		requestAttrs = append(requestAttrs, telemetry.AttrUserRole.String(s.role))
	}
	metrics.requestTotal.Add(ctx, 1, metric.WithAttributes(requestAttrs...))

	base := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(s.method),
		telemetry.AttrHTTPRoute.String(s.route),
	)
	metrics.requestDuration.Record(ctx, s.duration.Seconds(), base)

	if s.requestSize > 0 {
		metrics.requestSize.Record(ctx, float64(s.requestSize), base)
	}
	if s.responseSize > 0 {
		metrics.responseSize.Record(ctx, float64(s.responseSize), base)
	}
}

// getRoutePattern returns the registered pattern, never the raw path
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

// HTTPMetricsStatusGroup buckets a status code into its class
func HTTPMetricsStatusGroup(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}
