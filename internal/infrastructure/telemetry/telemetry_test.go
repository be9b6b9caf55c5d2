package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", agg)
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "test", zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, tel.Tracer())
	assert.NotNil(t, tel.Meter())
	assert.Equal(t, zapcore.NewNopCore(), tel.ZapCore(zapcore.InfoLevel))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetup_ProfilingRequiresURL(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		Insecure:          true,
		SamplingRatio:     1,
		ServiceName:       "foodontracks-test",
		ProfilingEnabled:  true,
	}
	_, err := Setup(context.Background(), cfg, "test", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pyroscope_url")
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "test"))

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestDeliveryMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewDeliveryMetrics(mp.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordOrderPlaced(ctx, "upi", decimal.NewFromInt(600))
	m.RecordOrderPlaced(ctx, "card", decimal.RequireFromString("149.50"))
	m.RecordStockRejection(ctx)
	m.RecordTransition(ctx, "order", "pending", "confirmed")
	m.RecordRejectedTransition(ctx, "order", "FORBIDDEN_TRANSITION")
	m.RecordClaim(ctx, true)
	m.RecordClaim(ctx, false)
	m.RecordClaim(ctx, false)
	m.RecordAuditFailure(ctx, "batch")
	m.RecordDuplicateSubmission(ctx)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got[MetricOrdersPlaced]))
	assert.Equal(t, int64(1), sumOf(t, got[MetricStockRejections]))
	assert.Equal(t, int64(1), sumOf(t, got[MetricStatusTransitions]))
	assert.Equal(t, int64(1), sumOf(t, got[MetricRejectedTransitions]))
	assert.Equal(t, int64(3), sumOf(t, got[MetricClaims]))
	assert.Equal(t, int64(1), sumOf(t, got[MetricAuditWriteFailures]))
	assert.Equal(t, int64(1), sumOf(t, got[MetricDuplicateSubmissions]))

	hist, ok := got[MetricOrderValue].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	var sum float64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 749.5, sum, 0.001)

	claims := got[MetricClaims].(metricdata.Sum[int64])
	for _, dp := range claims.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		switch outcome.AsString() {
		case "won":
			assert.Equal(t, int64(1), dp.Value)
		case "lost":
			assert.Equal(t, int64(2), dp.Value)
		}
	}
}

func TestDeliveryMetrics_NilIsSafe(t *testing.T) {
	var m *DeliveryMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordOrderPlaced(ctx, "cash", decimal.NewFromInt(1))
		m.RecordTransition(ctx, "order", "a", "b")
		m.RecordClaim(ctx, true)
		m.RecordAuditFailure(ctx, "order")
	})
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartServiceSpan(context.Background(), "order", "place", attribute.String("restaurant_id", "r1"))
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, shared.ErrInsufficientStock)
	span.End()

	_, span = StartServiceSpan(context.Background(), "order", "update_status")
	RecordError(span, errors.New("connection reset"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "order.place", spans[0].Name())
	assert.NotEqual(t, "Error", spans[0].Status().Code.String())
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "domain_error", spans[0].Events()[0].Name)

	assert.Equal(t, "Error", spans[1].Status().Code.String())
	assert.Equal(t, "", TraceID(context.Background()))
}
