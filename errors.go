package imgconvert

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrInvalidConfig     = errors.New("invalid config")
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrStoreFull         = errors.New("artifact store is full")
	ErrFormatUnavailable = errors.New("output format not available on this host")
	ErrSourceTooLarge    = errors.New("source image too large to decode")
)

// FileError records an error and the operation and file name that caused it
type FileError struct {
	Op   string
	Name string
	Err  error
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether an error indicates a missing artifact
func IsNotFound(err error) bool {
	return errors.Is(err, ErrArtifactNotFound)
}
