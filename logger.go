package imgconvert

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger from the LogLevel and LogFormat settings.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	var zc zap.Config
	switch cfg.LogFormat {
	case "json":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	zc.Level = level

	return zc.Build()
}
