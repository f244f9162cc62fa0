package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global = zap.NewNop()
	mu     sync.RWMutex
)

// Init builds a production zap logger at the given level ("debug", "info", ...).
// Unknown levels fall back to info.
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Set(l)
	return nil
}

// Set replaces the global logger. Tests use it with zaptest/observer loggers.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func WithModule(module string) *zap.Logger {
	return L().With(zap.String("module", module))
}

func Sync() error {
	return L().Sync()
}
