package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type probe struct {
	ID   uint
	Name string
}

func TestInstrumentDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "probe.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	core, logs := observer.New(zapcore.WarnLevel)

	inst, err := InstrumentDB(db, config.TelemetryConfig{
		DBTraceEnabled:    true,
		DBSlowQueryThresh: time.Nanosecond,
	}, mp.Meter("test"), zap.New(core))
	require.NoError(t, err)
	defer inst.Close()

	require.NoError(t, db.AutoMigrate(&probe{}))
	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var got []probe
	require.NoError(t, db.Find(&got).Error)
	require.Len(t, got, 1)

	metrics := collect(t, reader)

	hist, ok := metrics[dbQueryDurationMetric].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.GreaterOrEqual(t, count, uint64(2))

	assert.GreaterOrEqual(t, sumOf(t, metrics[dbSlowQueryMetric]), int64(2))
	assert.NotZero(t, logs.FilterMessage("Slow query").Len())

	gauge, ok := metrics[dbConnectionUsageMetric].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, gauge.DataPoints, 2)
}

func TestInstrumentDB_DefaultThreshold(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "probe.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider()
	inst, err := InstrumentDB(db, config.TelemetryConfig{}, mp.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, defaultSlowQueryThresh, inst.slowThreshold)
	assert.NoError(t, inst.Close())
}
