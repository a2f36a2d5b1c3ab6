package pipeline

import (
	"errors"
	"fmt"
)

// Conversion failures. Guardrail errors are returned before any surface is
// allocated.
var (
	ErrDimensionsTooLarge  = errors.New("dimensions too large")
	ErrPixelBudgetExceeded = errors.New("pixel budget exceeded")
	ErrInvalidDimensions   = errors.New("invalid dimensions")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrSurfaceUnavailable  = errors.New("could not allocate raster surface")
	ErrDrawFailed          = errors.New("failed to draw image")
	ErrEncodeFailed        = errors.New("failed to encode image")
)

// DrawError reports a failure while drawing the source onto the surface, for
// example a corrupt decode.
type DrawError struct {
	Err error
}

// Error implements the error interface
func (e *DrawError) Error() string {
	if e.Err == nil {
		return ErrDrawFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrDrawFailed, e.Err)
}

// Unwrap returns the underlying error
func (e *DrawError) Unwrap() error {
	return e.Err
}

// Is matches ErrDrawFailed
func (e *DrawError) Is(target error) bool {
	return target == ErrDrawFailed
}

// EncodeError reports that the host produced no output for a format.
type EncodeError struct {
	Format string
	Err    error
}

// Error implements the error interface
func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("%s as %s; try a different format or reduce the size or quality", ErrEncodeFailed, e.Format)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrEncodeFailed
func (e *EncodeError) Is(target error) bool {
	return target == ErrEncodeFailed
}
