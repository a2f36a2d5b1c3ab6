package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/gobeaver/imgconvert/pipeline"
)

// Option configures a Host
type Option func(*Host)

// WithInterpolator sets the scaler used by Draw. The default is CatmullRom.
func WithInterpolator(i draw.Interpolator) Option {
	return func(h *Host) {
		h.scaler = i
	}
}

// Host implements pipeline.Host on *image.RGBA surfaces. It has no mutable
// state and can serve concurrent conversions.
type Host struct {
	scaler draw.Interpolator
}

var _ pipeline.Host = (*Host)(nil)

// NewHost creates a raster host
func NewHost(opts ...Option) *Host {
	h := &Host{scaler: draw.CatmullRom}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type surface struct {
	img *image.RGBA
}

func (s *surface) Width() int  { return s.img.Bounds().Dx() }
func (s *surface) Height() int { return s.img.Bounds().Dy() }

func (s *surface) Fill(c color.Color) {
	if s.img == nil {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Release drops the pixel buffer. Width and Height stay valid.
func (s *surface) Release() {
	if s.img == nil {
		return
	}
	s.img = &image.RGBA{Rect: s.img.Rect}
}

func (s *surface) released() bool {
	return s.img == nil || s.img.Pix == nil
}

// NewSurface allocates a transparent RGBA surface. Allocation panics from
// the image package are returned as errors.
func (h *Host) NewSurface(width, height int) (_ pipeline.Surface, err error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("raster: invalid surface size %dx%d", width, height)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("raster: allocate %dx%d surface: %v", width, height, r)
		}
	}()

	return &surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// Draw scales src onto the whole of dst, compositing over what dst already
// holds.
func (h *Host) Draw(ctx context.Context, dst pipeline.Surface, src pipeline.Source) error {
	s, ok := dst.(*surface)
	if !ok {
		return errors.Errorf("raster: surface %T was not allocated by this host", dst)
	}
	if s.released() {
		return errors.New("raster: draw on released surface")
	}

	img, ok := src.(image.Image)
	if !ok {
		return errors.Errorf("raster: source %T has no pixel data", src)
	}
	if img.Bounds().Empty() {
		return errors.New("raster: source image is empty")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	h.scaler.Scale(s.img, s.img.Bounds(), img, img.Bounds(), draw.Over, nil)
	return nil
}

// Encode serializes the surface as mimeType.
func (h *Host) Encode(ctx context.Context, dst pipeline.Surface, mimeType string, quality float64) ([]byte, error) {
	s, ok := dst.(*surface)
	if !ok {
		return nil, errors.Errorf("raster: surface %T was not allocated by this host", dst)
	}
	if s.released() {
		return nil, errors.New("raster: encode of released surface")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, ok := encoders[mimeType]
	if !ok {
		return nil, errors.Wrap(ErrNoEncoder, mimeType)
	}

	data, err := enc(s.img, quality)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("raster: encode %s", mimeType))
	}
	return data, nil
}
