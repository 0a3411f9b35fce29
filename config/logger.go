package config

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu  sync.RWMutex
	appLog = zap.NewNop()
)

// InitLogger builds the process logger. Production gets JSON output, everything else
// the human-readable development encoder.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	SetLogger(l)
	return l, nil
}

// L returns the process logger (a no-op logger until InitLogger or SetLogger runs)
func L() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return appLog
}

// SetLogger replaces the process logger (primarily for testing)
func SetLogger(l *zap.Logger) {
	logMu.Lock()
	appLog = l
	logMu.Unlock()
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	_ = L().Sync()
}
