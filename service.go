package imgconvert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gobeaver/beaver-kit/config"
	"go.uber.org/zap"

	"github.com/gobeaver/imgconvert/filevalidator"
	"github.com/gobeaver/imgconvert/pipeline"
	"github.com/gobeaver/imgconvert/raster"
)

// Global instance
var (
	defaultConverter *Converter
	defaultOnce      sync.Once
	defaultErr       error
)

// Builder provides a way to create Converter instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Converter instance using the builder's prefix
func (b *Builder) Init(opts ...Option) error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg, opts...)
}

// New creates a new Converter instance using the builder's prefix
func (b *Builder) New(opts ...Option) (*Converter, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Init initializes the global converter. A nil cfg loads it from the environment.
func Init(cfg *Config, opts ...Option) error {
	defaultOnce.Do(func() {
		if cfg == nil {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultConverter, defaultErr = New(cfg, opts...)
	})

	return defaultErr
}

// Default returns the global instance, initializing it from the environment
// if needed
func Default() (*Converter, error) {
	if defaultConverter == nil {
		if err := Init(nil); err != nil {
			return nil, err
		}
	}
	return defaultConverter, nil
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultConverter = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}

// Option configures a Converter
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHost replaces the raster host, e.g. with a GPU-backed one
func WithHost(h pipeline.Host) Option {
	return func(c *Converter) {
		if h != nil {
			c.host = h
		}
	}
}

// WithStore shares an artifact store between converters
func WithStore(s *ArtifactStore) Option {
	return func(c *Converter) {
		if s != nil {
			c.store = s
		}
	}
}

// Converter ties the upload guard, the raster host and the conversion
// pipeline together, and keeps the results in an artifact store.
type Converter struct {
	cfg       Config
	validator *filevalidator.Validator
	host      pipeline.Host
	pipeline  *pipeline.Pipeline
	store     *ArtifactStore
	logger    *zap.Logger

	probeOnce sync.Once
	formats   []pipeline.OutputFormat
}

// New creates a converter with given config
func New(cfg *Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:    *cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.host == nil {
		c.host = raster.NewHost()
	}
	if c.store == nil {
		c.store = NewArtifactStore(cfg.MaxArtifactBytes)
	}

	constraints := filevalidator.DefaultConstraints()
	constraints.MaxFileSize = cfg.MaxFileSize
	c.validator = filevalidator.New(constraints)
	c.pipeline = pipeline.New(c.host, pipeline.WithLimits(cfg.Limits()))

	return c, nil
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv(opts ...Option) (*Converter, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Config returns a copy of the converter's config
func (c *Converter) Config() Config {
	return c.cfg
}

// Store returns the artifact store
func (c *Converter) Store() *ArtifactStore {
	return c.store
}

// Logger returns the converter's logger
func (c *Converter) Logger() *zap.Logger {
	return c.logger
}

// Validate runs the synchronous upload checks
func (c *Converter) Validate(file *filevalidator.File) *filevalidator.Verdict {
	return c.validator.ValidateFile(file)
}

// ValidateWithSignature runs the upload checks and verifies the content signature
func (c *Converter) ValidateWithSignature(ctx context.Context, file *filevalidator.File) *filevalidator.Verdict {
	verdict := c.validator.ValidateFileWithSignature(ctx, file)
	if verdict.HasWarning() {
		c.logger.Warn("file validation warning",
			zap.String("file", file.Name),
			zap.String("warning", verdict.Warning),
		)
	}
	return verdict
}

// OutputFormats returns the output formats the host can produce. The host
// is probed on first use and the answer kept for the life of the converter.
func (c *Converter) OutputFormats() []pipeline.OutputFormat {
	c.probeOnce.Do(func() {
		start := time.Now()
		c.formats = raster.ProbeFormats(context.Background(), c.host)

		names := make([]string, len(c.formats))
		for i, f := range c.formats {
			names[i] = f.DisplayName
		}
		c.logger.Debug("probed output formats",
			zap.Strings("formats", names),
			zap.Duration("took", time.Since(start)),
		)
	})

	out := make([]pipeline.OutputFormat, len(c.formats))
	copy(out, c.formats)
	return out
}

// Decode reads and decodes a file. The source's pixel count is checked
// against the guardrails from its header before the pixels are decoded.
func (c *Converter) Decode(ctx context.Context, file *filevalidator.File) (*raster.Image, error) {
	r, err := file.Open()
	if err != nil {
		return nil, &FileError{Op: "open", Name: file.Name, Err: err}
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FileError{Op: "read", Name: file.Name, Err: err}
	}

	if err := c.checkSource(data); err != nil {
		return nil, &FileError{Op: "decode", Name: file.Name, Err: err}
	}

	img, err := raster.DecodeBytes(ctx, data)
	if err != nil {
		return nil, &FileError{Op: "decode", Name: file.Name, Err: err}
	}
	return img, nil
}

func (c *Converter) checkSource(data []byte) error {
	cfg, _, err := raster.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil // reported by the full decode
	}

	limits := c.pipeline.Limits()
	if pixels := int64(cfg.Width) * int64(cfg.Height); limits.MaxPixels > 0 && pixels > limits.MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrSourceTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// Convert converts a decoded source. An empty Format falls back to the
// configured default, and the format must be one the host really produces.
func (c *Converter) Convert(ctx context.Context, src pipeline.Source, s pipeline.Settings) (*pipeline.Result, error) {
	if s.Format == "" {
		s.Format = c.cfg.DefaultFormat
	}

	format, ok := pipeline.LookupFormat(s.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, s.Format)
	}
	if !c.available(format.MIMEType) {
		return nil, fmt.Errorf("%w: %s", ErrFormatUnavailable, format.DisplayName)
	}

	start := time.Now()
	res, err := c.pipeline.Convert(ctx, src, s)
	if err != nil {
		c.logger.Error("conversion failed",
			zap.String("format", format.MIMEType),
			zap.Int("source_width", src.Width()),
			zap.Int("source_height", src.Height()),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("converted image",
		zap.String("format", res.MIMEType),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int("bytes", res.Size),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// ConvertFile validates, decodes and converts one file and stores the
// result. A rejected file returns its verdict together with a *FileError
// wrapping the validation error.
func (c *Converter) ConvertFile(ctx context.Context, file *filevalidator.File, s pipeline.Settings) (*Artifact, *filevalidator.Verdict, error) {
	verdict := c.ValidateWithSignature(ctx, file)
	if !verdict.Valid {
		name := ""
		if file != nil {
			name = file.Name
		}
		c.logger.Info("file rejected",
			zap.String("file", name),
			zap.String("reason", verdict.Error),
		)
		return nil, verdict, &FileError{Op: "validate", Name: name, Err: verdict.Err()}
	}

	src, err := c.Decode(ctx, file)
	if err != nil {
		return nil, verdict, err
	}

	res, err := c.Convert(ctx, src, s)
	if err != nil {
		return nil, verdict, &FileError{Op: "convert", Name: file.Name, Err: err}
	}

	artifact, err := c.store.Put(res, OutputName(file.Name, res.MIMEType))
	if err != nil {
		return nil, verdict, err
	}

	c.logger.Info("converted file",
		zap.String("file", file.Name),
		zap.String("artifact", artifact.ID),
		zap.String("from", src.Format),
		zap.String("to", artifact.MIMEType),
		zap.Int64("bytes", artifact.Size),
	)
	return artifact, verdict, nil
}

func (c *Converter) available(mimeType string) bool {
	for _, f := range c.OutputFormats() {
		if f.MIMEType == mimeType {
			return true
		}
	}
	return false
}
