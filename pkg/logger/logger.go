package logger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger with context aware helpers.
type Logger struct {
	*zap.Logger
	// ctx skips the wrapper frame so the *Context helpers report the caller.
	ctx *zap.Logger
}

func wrap(zl *zap.Logger) *Logger {
	return &Logger{Logger: zl, ctx: zl.WithOptions(zap.AddCallerSkip(1))}
}

// New builds a logger for the given level (debug, info, warn, error) and
// encoding (json or console).
func New(level string, encoding string) (*Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	if encoding == "" {
		encoding = "json"
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = encoding
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return wrap(zl), nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return wrap(zap.NewNop())
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return wrap(l.Logger.Named(name))
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return wrap(l.Logger.With(fields...))
}

func (l *Logger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.ctx.Debug(msg, withContext(ctx, fields)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.ctx.Info(msg, withContext(ctx, fields)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.ctx.Warn(msg, withContext(ctx, fields)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.ctx.Error(msg, withContext(ctx, fields)...)
}

type cycleKey struct{}

// WithCycle tags ctx with the monitor cycle number so every log line emitted
// while processing it can be correlated.
func WithCycle(ctx context.Context, cycle int) context.Context {
	return context.WithValue(ctx, cycleKey{}, cycle)
}

func withContext(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if cycle, ok := ctx.Value(cycleKey{}).(int); ok {
		return append(fields, zap.Int("cycle", cycle))
	}
	return fields
}

// Field creates a field of any type.
func Field(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

func StringField(key string, value string) zap.Field {
	return zap.String(key, value)
}

func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Float64Field(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

func BoolField(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func DurationField(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// ErrorField creates an "error" field.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

// FromZap wraps an existing zap logger, e.g. one built on an observer core.
func FromZap(zl *zap.Logger) *Logger {
	return wrap(zl)
}
