// Package pipeline drives a host rasterizer through a bounded
// resize-and-reencode of one decoded image.
//
// The pipeline owns ordering and guardrails: dimension limits are checked
// before a surface is allocated, the surface is released on every exit path,
// opaque-only targets are pre-filled with white, and draw and encode failures
// are reported as distinct errors. It never retries.
package pipeline

import (
	"context"
	"fmt"
	"image/color"
)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLimits overrides the default guardrails
func WithLimits(l Limits) Option {
	return func(p *Pipeline) {
		p.limits = l
	}
}

// Pipeline converts images through a Host. It holds no per-call state and is
// safe for concurrent use if the Host is.
type Pipeline struct {
	host   Host
	limits Limits
}

// New creates a pipeline for host
func New(host Host, opts ...Option) *Pipeline {
	p := &Pipeline{
		host:   host,
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert converts src with the default limits. See Pipeline.Convert.
func Convert(ctx context.Context, host Host, src Source, s Settings) (*Result, error) {
	return New(host).Convert(ctx, src, s)
}

// Limits returns the guardrails in effect
func (p *Pipeline) Limits() Limits {
	return p.limits
}

// Convert resizes src to the target size and encodes it as s.Format.
func (p *Pipeline) Convert(ctx context.Context, src Source, s Settings) (*Result, error) {
	format, ok := LookupFormat(s.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s.Format)
	}

	width, height := ResolveDimensions(src.Width(), src.Height(), s)
	if err := p.limits.Check(width, height); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface, err := p.host.NewSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d: %v", ErrSurfaceUnavailable, width, height, err)
	}
	defer surface.Release()

	if !format.SupportsAlpha {
		surface.Fill(color.White)
	}

	if err := p.host.Draw(ctx, surface, src); err != nil {
		return nil, &DrawError{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := p.host.Encode(ctx, surface, format.MIMEType, clampQuality(s.Quality))
	if err != nil || len(data) == 0 {
		return nil, &EncodeError{Format: format.MIMEType, Err: err}
	}

	return &Result{
		Data:     data,
		MIMEType: format.MIMEType,
		Size:     len(data),
		Width:    width,
		Height:   height,
	}, nil
}
