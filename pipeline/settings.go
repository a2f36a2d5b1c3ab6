package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Settings are the caller's conversion parameters. The pipeline only reads them.
type Settings struct {
	// Format is the target MIME type, e.g. "image/webp"
	Format string

	// Quality in [0, 1]; only meaningful for formats with SupportsQuality.
	// Values outside the range are clamped.
	Quality float64

	// Width and Height are the target size. Zero means the source's natural size.
	Width  int
	Height int

	// MaintainAspectRatio derives a missing side from the source aspect ratio
	// when only one of Width and Height is set.
	MaintainAspectRatio bool
}

// Result is an encoded image. Each call returns a freshly allocated Result
// owned by the caller.
type Result struct {
	Data     []byte
	MIMEType string
	Size     int
	Width    int
	Height   int
}

// Reader returns a reader over the encoded bytes
func (r *Result) Reader() io.Reader {
	return bytes.NewReader(r.Data)
}

// Checksum returns the hex xxhash64 of the encoded bytes
func (r *Result) Checksum() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(r.Data))
}

// Limits bound the target raster before any allocation.
type Limits struct {
	// MaxDimension is the largest allowed width or height
	MaxDimension int

	// MaxPixels is the largest allowed width*height
	MaxPixels int64
}

const (
	// DefaultMaxDimension is the per-side ceiling
	DefaultMaxDimension = 16384

	// DefaultMaxPixels is the total pixel ceiling (DefaultMaxDimension squared)
	DefaultMaxPixels = int64(DefaultMaxDimension) * DefaultMaxDimension
)

// DefaultLimits returns the standard guardrails
func DefaultLimits() Limits {
	return Limits{
		MaxDimension: DefaultMaxDimension,
		MaxPixels:    DefaultMaxPixels,
	}
}

// Check validates target dimensions against the limits.
func (l Limits) Check(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	if l.MaxDimension > 0 && (width > l.MaxDimension || height > l.MaxDimension) {
		return fmt.Errorf("%w: %dx%d exceeds the maximum of %d pixels per side",
			ErrDimensionsTooLarge, width, height, l.MaxDimension)
	}

	if pixels := int64(width) * int64(height); l.MaxPixels > 0 && pixels > l.MaxPixels {
		return fmt.Errorf("%w: %.1f megapixels exceeds the maximum of %.1f megapixels",
			ErrPixelBudgetExceeded, megapixels(pixels), megapixels(l.MaxPixels))
	}

	return nil
}

func megapixels(pixels int64) float64 {
	return float64(pixels) / 1e6
}

// ResolveDimensions returns the target size for a source of srcW x srcH.
func ResolveDimensions(srcW, srcH int, s Settings) (int, int) {
	w, h := s.Width, s.Height

	if s.MaintainAspectRatio && srcW > 0 && srcH > 0 {
		switch {
		case w > 0 && h <= 0:
			h = scaleSide(w, srcH, srcW)
		case h > 0 && w <= 0:
			w = scaleSide(h, srcW, srcH)
		}
	}

	if w <= 0 {
		w = srcW
	}
	if h <= 0 {
		h = srcH
	}
	return w, h
}

// scaleSide returns side*num/den rounded, at least 1
func scaleSide(side, num, den int) int {
	v := math.Round(float64(side) * float64(num) / float64(den))
	if v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func clampQuality(q float64) float64 {
	switch {
	case math.IsNaN(q) || q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}
