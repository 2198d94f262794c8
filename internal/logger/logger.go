// Package logger holds the process-wide zap logger and the request-scoped
// loggers derived from it.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	sugar *zap.SugaredLogger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	once  sync.Once
)

// Init builds the global logger once. "production" writes JSON, "test"
// discards everything, anything else gets the console encoder at debug.
func Init(env string) {
	once.Do(func() {
		var cfg zap.Config
		switch env {
		case "test":
			sugar = zap.NewNop().Sugar()
			return
		case "production":
			cfg = zap.NewProductionConfig()
		default:
			cfg = zap.NewDevelopmentConfig()
			level.SetLevel(zapcore.DebugLevel)
		}
		cfg.Level = level

		base, err := cfg.Build()
		if err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar()
	})
}

// SetLevel changes the minimum level of the global logger at runtime.
// An empty name leaves the level untouched.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	return level.UnmarshalText([]byte(name))
}

// Get returns the global sugared logger, initializing a development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// IntoContext returns ctx carrying log.
func IntoContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or the global one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
		return log
	}
	return Get()
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
