// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Field  = zapcore.Field
	Option = zap.Option
)

type loggerCtxKey struct{}

// Config selects the encoder and the minimum level.
type Config struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`

	// Production switches to JSON output with sampling.
	Production bool `yaml:"production"`
}

// New builds a logger. The development config prints capitalised,
// coloured levels; both configs stamp RFC3339 times.
func New(cfg Config, opts ...Option) (*zap.Logger, error) {
	var logCfg zap.Config
	if cfg.Production {
		logCfg = zap.NewProductionConfig()
	} else {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		logCfg.Level = level
	}

	return logCfg.Build(opts...)
}

// WithContext returns a copy of ctx carrying log.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, log)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if l, ok := ctx.Value(loggerCtxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// Duration is zap.Duration for string-typed keys.
func Duration[S ~string](s S, d time.Duration) Field {
	return zap.Duration(string(s), d)
}

// Int is zap.Int for string-typed keys.
func Int[S ~string](s S, v int) Field {
	return zap.Int(string(s), v)
}

// Int64 is zap.Int64 for string-typed keys.
func Int64[S ~string](s S, v int64) Field {
	return zap.Int64(string(s), v)
}

// String is zap.String for string-typed keys and values.
func String[U, V ~string](s U, v V) Field {
	return zap.String(string(s), string(v))
}
