// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling. Every signal is optional; disabled signals fall back
// to the global no-op providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentationName is the tracer and meter name used across the backend
const InstrumentationName = "github.com/foodontracks/backend"

// Telemetry owns the providers created at startup
type Telemetry struct {
	cfg      config.TelemetryConfig
	logger   *zap.Logger
	tracer   *sdktrace.TracerProvider
	meter    *sdkmetric.MeterProvider
	logs     *sdklog.LoggerProvider
	profiler *pyroscope.Profiler
}

// Setup creates the providers enabled in cfg and installs them globally
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{cfg: cfg, logger: logger}

	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return t, nil
	}

	res, err := newResource(cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	if t.tracer, err = newTracerProvider(ctx, cfg, res); err != nil {
		return nil, err
	}

	if cfg.MetricsEnabled {
		if t.meter, err = newMeterProvider(ctx, cfg, res); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
	}

	if cfg.LogsEnabled {
		if t.logs, err = newLoggerProvider(ctx, cfg, res); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
	}

	if cfg.ProfilingEnabled {
		if t.profiler, err = startProfiler(cfg, version, logger); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		enableSpanProfiles(t.tracer)
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("metrics", t.meter != nil),
		zap.Bool("logs", t.logs != nil),
		zap.Bool("profiling", t.profiler != nil),
	)
	return t, nil
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Tracer returns a tracer from the installed provider
func (t *Telemetry) Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(InstrumentationName)
}

// Meter returns a meter from the installed provider
func (t *Telemetry) Meter() metric.Meter {
	if t.meter != nil {
		return t.meter.Meter(InstrumentationName)
	}
	return otel.GetMeterProvider().Meter(InstrumentationName)
}

// Config returns the configuration the providers were built from
func (t *Telemetry) Config() config.TelemetryConfig {
	return t.cfg
}

// Shutdown flushes and stops every provider. Errors are joined.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop profiler: %w", err))
		}
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logger provider: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		t.logger.Error("Telemetry shutdown incomplete", zap.Error(err))
		return err
	}
	return nil
}
