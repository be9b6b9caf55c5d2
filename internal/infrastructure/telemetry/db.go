package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryStartKey           = "fot:query_start"
	defaultSlowQueryThresh  = 200 * time.Millisecond
	dbQueryDurationMetric   = "db.client.operation.duration"
	dbSlowQueryMetric       = "db.client.slow_queries"
	dbConnectionUsageMetric = "db.client.connection.count"
	dbConnectionMaxMetric   = "db.client.connection.max"
)

// DBInstrumentation records query latency, slow queries and pool usage for
// one gorm handle, and optionally attaches otelgorm spans.
type DBInstrumentation struct {
	queryDuration metric.Float64Histogram
	slowQueries   metric.Int64Counter
	slowThreshold time.Duration
	logger        *zap.Logger
	registration  metric.Registration
}

// InstrumentDB registers callbacks and pool gauges on db
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(db.Dialector.Name())}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("register otelgorm: %w", err)
		}
	}

	d := &DBInstrumentation{
		slowThreshold: cfg.DBSlowQueryThresh,
		logger:        logger,
	}
	if d.slowThreshold <= 0 {
		d.slowThreshold = defaultSlowQueryThresh
	}

	var err error
	if d.queryDuration, err = NewHistogram(meter, dbQueryDurationMetric,
		"Duration of database operations", "s", DBDurationBuckets); err != nil {
		return nil, err
	}
	if d.slowQueries, err = NewCounter(meter, dbSlowQueryMetric,
		"Database operations slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}

	if err := d.registerCallbacks(db); err != nil {
		return nil, fmt.Errorf("register db callbacks: %w", err)
	}
	if err := d.registerPoolGauges(db, meter); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", d.slowThreshold),
	)
	return d, nil
}

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("fot:before_create", d.before),
		cb.Create().After("gorm:create").Register("fot:after_create", d.after("create")),
		cb.Query().Before("gorm:query").Register("fot:before_query", d.before),
		cb.Query().After("gorm:query").Register("fot:after_query", d.after("select")),
		cb.Update().Before("gorm:update").Register("fot:before_update", d.before),
		cb.Update().After("gorm:update").Register("fot:after_update", d.after("update")),
		cb.Delete().Before("gorm:delete").Register("fot:before_delete", d.before),
		cb.Delete().After("gorm:delete").Register("fot:after_delete", d.after("delete")),
		cb.Row().Before("gorm:row").Register("fot:before_row", d.before),
		cb.Row().After("gorm:row").Register("fot:after_row", d.after("row")),
		cb.Raw().Before("gorm:raw").Register("fot:before_raw", d.before),
		cb.Raw().After("gorm:raw").Register("fot:after_raw", d.after("raw")),
	)
}

func (d *DBInstrumentation) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (d *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := metric.WithAttributes(
			attribute.String("db.operation.name", operation),
			attribute.String("db.collection.name", db.Statement.Table),
		)
		d.queryDuration.Record(ctx, elapsed.Seconds(), attrs)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}

		if elapsed > d.slowThreshold {
			d.slowQueries.Add(ctx, 1, attrs)
			if span.IsRecording() {
				span.AddEvent("slow_query", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", d.slowThreshold.Milliseconds()),
				))
			}
			d.logger.Warn("Slow query",
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.Int64("rows", db.Statement.RowsAffected),
			)
		}
	}
}

func (d *DBInstrumentation) registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	usage, err := meter.Int64ObservableGauge(dbConnectionUsageMetric,
		metric.WithDescription("Open connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool usage gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge(dbConnectionMaxMetric,
		metric.WithDescription("Maximum open connections allowed"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool max gauge: %w", err)
	}

	d.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(usage, int64(stats.InUse), metric.WithAttributes(attribute.String("state", "used")))
		o.ObserveInt64(usage, int64(stats.Idle), metric.WithAttributes(attribute.String("state", "idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		return nil
	}, usage, maxOpen)
	if err != nil {
		return fmt.Errorf("register pool callback: %w", err)
	}
	return nil
}

// Close stops pool observations
func (d *DBInstrumentation) Close() error {
	if d.registration == nil {
		return nil
	}
	return d.registration.Unregister()
}
