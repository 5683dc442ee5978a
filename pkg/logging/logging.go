// Package logging builds the process logger: zap underneath, ectologger on top.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
)

type Config struct {
	AppName string
	Level   string
	// Pretty switches to zap's human-readable development encoder.
	Pretty bool
}

// New returns the logger and a flush func to defer in main.
func New(cfg Config) (ectologger.Logger, func(), error) {
	zapLogger, err := newZap(cfg)
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		// stdout/stderr sync errors are noise on most platforms
		_ = zapLogger.Sync()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), flush, nil
}

func newZap(cfg Config) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Pretty {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = atomic

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.AppName != "" {
		logger = logger.With(zap.String("app", cfg.AppName))
	}
	return logger, nil
}
