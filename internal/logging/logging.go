// Package logging builds the process logger from LOG_LEVEL and LOG_FORMAT.
package logging

import (
	"fmt"
	"strings"

	"github.com/cctv-report/backend/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger, or a development console logger
// when the format is "console".
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "console":
		zc = zap.NewDevelopmentConfig()
	case "", "json":
		zc = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unsupported LOG_FORMAT %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
