// Package logging builds the zap loggers used across ccfg
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ludo-technologies/ccfg/internal/config"
)

// New returns a logger for cfg. Debug level gets the development preset,
// everything else the production one. Output always goes to stderr so that
// stdout stays clean for graph exports; files are extra output paths, e.g. a
// log file.
func New(cfg config.LoggingConfig, files ...string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if level.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = level
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}
	zc.OutputPaths = append([]string{"stderr"}, files...)
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Verbose raises cfg to debug level when verbose is set
func Verbose(cfg config.LoggingConfig, verbose bool) config.LoggingConfig {
	if verbose {
		cfg.Level = "debug"
	}
	return cfg
}
