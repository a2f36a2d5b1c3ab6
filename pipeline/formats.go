package pipeline

import "strings"

// OutputFormat describes what an encoder target can represent.
type OutputFormat struct {
	MIMEType    string
	DisplayName string
	Extension   string

	// SupportsQuality is set for lossy formats where the quality setting
	// changes the output.
	SupportsQuality bool

	// SupportsAlpha is false for opaque-only formats. Surfaces for those
	// formats are pre-filled with white before drawing.
	SupportsAlpha bool
}

// outputFormats are the candidate targets, in presentation order. Which of
// them a given host can actually encode is decided by probing the host.
var outputFormats = []OutputFormat{
	{MIMEType: "image/jpeg", DisplayName: "JPEG", Extension: ".jpg", SupportsQuality: true, SupportsAlpha: false},
	{MIMEType: "image/png", DisplayName: "PNG", Extension: ".png", SupportsQuality: false, SupportsAlpha: true},
	{MIMEType: "image/webp", DisplayName: "WebP", Extension: ".webp", SupportsQuality: true, SupportsAlpha: true},
	{MIMEType: "image/gif", DisplayName: "GIF", Extension: ".gif", SupportsQuality: false, SupportsAlpha: true},
	{MIMEType: "image/bmp", DisplayName: "BMP", Extension: ".bmp", SupportsQuality: false, SupportsAlpha: false},
	{MIMEType: "image/tiff", DisplayName: "TIFF", Extension: ".tiff", SupportsQuality: false, SupportsAlpha: true},
}

// OutputFormats returns a copy of the candidate output formats
func OutputFormats() []OutputFormat {
	out := make([]OutputFormat, len(outputFormats))
	copy(out, outputFormats)
	return out
}

// LookupFormat returns the output format for a MIME type or a short name
// such as "png" or "jpg".
func LookupFormat(name string) (OutputFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "jpg", "image/jpg":
		name = "image/jpeg"
	case "tif":
		name = "image/tiff"
	}
	if !strings.Contains(name, "/") {
		name = "image/" + name
	}

	for _, f := range outputFormats {
		if f.MIMEType == name {
			return f, true
		}
	}
	return OutputFormat{}, false
}
