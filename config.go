package imgconvert

import (
	"fmt"

	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/imgconvert/pipeline"
)

type Config struct {
	// Upload guard
	MaxFileSize int64 `env:"IMGCONVERT_MAX_FILE_SIZE,default:52428800"` // 50MB default

	// Conversion guardrails
	MaxDimension int `env:"IMGCONVERT_MAX_DIMENSION,default:16384"`

	// Defaults applied when a request leaves them out
	DefaultFormat  string `env:"IMGCONVERT_DEFAULT_FORMAT,default:image/png"`
	DefaultQuality int    `env:"IMGCONVERT_DEFAULT_QUALITY,default:92"` // percent

	// Artifact store cap in bytes, 0 = unlimited
	MaxArtifactBytes int64 `env:"IMGCONVERT_MAX_ARTIFACT_BYTES,default:0"`

	// Logging
	LogLevel  string `env:"IMGCONVERT_LOG_LEVEL,default:info"`
	LogFormat string `env:"IMGCONVERT_LOG_FORMAT,default:console"` // console or json
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive", ErrInvalidConfig)
	}
	if c.MaxDimension <= 0 {
		return fmt.Errorf("%w: max dimension must be positive", ErrInvalidConfig)
	}
	if _, ok := pipeline.LookupFormat(c.DefaultFormat); !ok {
		return fmt.Errorf("%w: unknown default format %q", ErrInvalidConfig, c.DefaultFormat)
	}
	if c.DefaultQuality < 0 || c.DefaultQuality > 100 {
		return fmt.Errorf("%w: default quality %d is outside 0-100", ErrInvalidConfig, c.DefaultQuality)
	}
	if c.MaxArtifactBytes < 0 {
		return fmt.Errorf("%w: max artifact bytes cannot be negative", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Limits returns the pipeline guardrails for this config
func (c *Config) Limits() pipeline.Limits {
	return pipeline.Limits{
		MaxDimension: c.MaxDimension,
		MaxPixels:    int64(c.MaxDimension) * int64(c.MaxDimension),
	}
}

// DefaultSettings returns the conversion settings used when a request names
// no format.
func (c *Config) DefaultSettings() pipeline.Settings {
	return pipeline.Settings{
		Format:              c.DefaultFormat,
		Quality:             float64(c.DefaultQuality) / 100,
		MaintainAspectRatio: true,
	}
}
