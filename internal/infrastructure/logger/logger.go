// Package logger builds the zap logger and carries request scoped loggers
// through context.Context.
package logger

import (
	"fmt"
	"strings"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type options struct {
	timeLayout string
	tee        []zapcore.Core
	fields     []zap.Field
}

type Option func(*options)

// WithTimeLayout overrides the ISO 8601 millisecond timestamps
func WithTimeLayout(layout string) Option {
	return func(o *options) { o.timeLayout = layout }
}

// WithCore sends every entry to core as well, e.g. the OTLP log bridge
func WithCore(core zapcore.Core) Option {
	return func(o *options) { o.tee = append(o.tee, core) }
}

// WithFields adds fields to every entry
func WithFields(fields ...zap.Field) Option {
	return func(o *options) { o.fields = append(o.fields, fields...) }
}

// New builds a logger writing cfg.Format to cfg.Output. Output is stdout,
// stderr or a file path, which is opened for append.
func New(cfg config.LogConfig, opts ...Option) (*zap.Logger, error) {
	o := options{timeLayout: defaultTimeLayout}
	for _, opt := range opts {
		opt(&o)
	}

	sink, _, err := zap.Open(outputPath(cfg.Output))
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", cfg.Output, err)
	}

	core := zapcore.NewCore(encoder(cfg.Format, o.timeLayout), sink, ParseLevel(cfg.Level))
	if len(o.tee) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, o.tee...)...)
	}
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(o.fields...)), nil
}

func outputPath(output string) string {
	switch strings.ToLower(output) {
	case "", "stdout":
		return "stdout"
	case "stderr":
		return "stderr"
	default:
		return output
	}
}

func encoder(format, timeLayout string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// ParseLevel accepts zap level names plus "warning"; anything else is info
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zapcore.WarnLevel
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
