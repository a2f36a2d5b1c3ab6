// Package sniffer identifies the container format of an image from its
// leading bytes, independent of any file name or declared MIME type.
package sniffer

import (
	"bytes"
	"context"
	"io"
	"unicode/utf8"
)

// WindowSize is the number of leading bytes inspected by Detect.
const WindowSize = 100

// SourceSignature is the Source reported for every detected format,
// including SVG found by the text fallback.
const SourceSignature = "signature"

// SniffResult is the format detected for one input.
type SniffResult struct {
	MIMEType    string
	DisplayName string
	Source      string
}

// Detect reads at most WindowSize bytes from r and classifies them.
// It returns nil when the format is unknown, when r is empty, when the read
// fails, or when ctx is already done. It never returns an error.
func Detect(ctx context.Context, r io.Reader) *SniffResult {
	if r == nil || ctx.Err() != nil {
		return nil
	}

	window := make([]byte, WindowSize)
	n, err := io.ReadFull(r, window)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil
	}

	return DetectBytes(window[:n])
}

// DetectBytes classifies an in-memory buffer. Only the first WindowSize bytes
// are considered.
func DetectBytes(data []byte) *SniffResult {
	if len(data) == 0 {
		return nil
	}
	if len(data) > WindowSize {
		data = data[:WindowSize]
	}

	for _, d := range formats {
		if d.matches(data) {
			return &SniffResult{
				MIMEType:    d.MIMEType,
				DisplayName: d.DisplayName,
				Source:      SourceSignature,
			}
		}
	}

	if looksLikeSVG(data) {
		return &SniffResult{
			MIMEType:    svgFormat.MIMEType,
			DisplayName: svgFormat.DisplayName,
			Source:      SourceSignature,
		}
	}

	return nil
}

// looksLikeSVG decodes the window as text and searches for XML or SVG markers.
// A multi-byte rune cut off by the window boundary is ignored.
func looksLikeSVG(data []byte) bool {
	text := bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	for _, marker := range svgMarkers {
		if bytes.Contains(text, marker) {
			return true
		}
	}
	return false
}
