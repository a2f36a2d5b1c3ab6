package pipeline

import (
	"context"
	"image/color"
)

// Source is a decoded raster that a Host knows how to draw.
type Source interface {
	// Width returns the natural width in pixels
	Width() int
	// Height returns the natural height in pixels
	Height() int
}

// Surface is a 2D raster owned by a single conversion call.
type Surface interface {
	Width() int
	Height() int

	// Fill paints the whole surface with c.
	Fill(c color.Color)

	// Release frees the surface. It is called exactly once per surface.
	Release()
}

// Host is the raster capability the pipeline drives. Implementations own the
// codecs; the pipeline owns ordering, guardrails and resource scoping.
type Host interface {
	// NewSurface allocates a surface of the given size.
	NewSurface(width, height int) (Surface, error)

	// Draw resamples src onto the whole surface.
	Draw(ctx context.Context, dst Surface, src Source) error

	// Encode serializes the surface. Quality is in [0, 1] and is passed for
	// every format; hosts ignore it where it has no meaning. A nil or empty
	// result is treated as an encode failure.
	Encode(ctx context.Context, s Surface, mimeType string, quality float64) ([]byte, error)
}
