package filevalidator

import (
	"fmt"
	"math"
)

// Size constants for easier file size configuration
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// DefaultMaxFileSize is the largest accepted input file.
const DefaultMaxFileSize = 50 * MB

// Constraints defines the configuration for file validation
type Constraints struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// A file of exactly MaxFileSize bytes is accepted. Zero disables the check.
	MaxFileSize int64

	// SupportedTypes lists declared MIME types accepted by the synchronous stage
	// in addition to any "image/" type.
	SupportedTypes []string
}

// DefaultConstraints creates a new set of constraints with sensible defaults
func DefaultConstraints() Constraints {
	return Constraints{
		MaxFileSize:    DefaultMaxFileSize,
		SupportedTypes: SupportedInputTypes(),
	}
}

// FormatSizeReadable formats a byte count for error messages, e.g. "50 MB".
func FormatSizeReadable(size int64) string {
	if size < KB {
		return fmt.Sprintf("%d B", size)
	}

	unit, suffix := KB, "KB"
	switch {
	case size >= GB:
		unit, suffix = GB, "GB"
	case size >= MB:
		unit, suffix = MB, "MB"
	}

	// Round to 1 decimal place
	rounded := math.Round(float64(size)/float64(unit)*10) / 10
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%.0f %s", rounded, suffix)
	}
	return fmt.Sprintf("%.1f %s", rounded, suffix)
}
