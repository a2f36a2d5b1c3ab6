package sniffer

import "bytes"

// Format identifiers used as symbolic keys in the descriptor table.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatWebP = "webp"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatICO  = "ico"
	FormatAVIF = "avif"
	FormatHEIC = "heic"
	FormatSVG  = "svg"
)

// Common image MIME types
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
	MIMETypeBMP  = "image/bmp"
	MIMETypeTIFF = "image/tiff"
	MIMETypeICO  = "image/x-icon"
	MIMETypeAVIF = "image/avif"
	MIMETypeHEIC = "image/heic"
	MIMETypeSVG  = "image/svg+xml"
)

// FormatDescriptor defines a container format signature.
type FormatDescriptor struct {
	ID          string
	MIMEType    string
	DisplayName string
	Offset      int    // Offset of Signature from start of file
	Signature   []byte // Bytes to match at Offset

	// Check is an optional predicate over the whole sniff window. Used for
	// containers whose type tag sits deeper in the header (RIFF, ISO-BMFF).
	Check func(window []byte) bool
}

// formats is the ordered descriptor table. First match wins, so a descriptor
// whose signature is a prefix of another's must come later or carry a Check.
var formats = []FormatDescriptor{
	{ID: FormatJPEG, MIMEType: MIMETypeJPEG, DisplayName: "JPEG", Signature: []byte{0xFF, 0xD8, 0xFF}},
	{ID: FormatPNG, MIMEType: MIMETypePNG, DisplayName: "PNG", Signature: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{ID: FormatGIF, MIMEType: MIMETypeGIF, DisplayName: "GIF", Signature: []byte("GIF87a")},
	{ID: FormatGIF, MIMEType: MIMETypeGIF, DisplayName: "GIF", Signature: []byte("GIF89a")},
	{ID: FormatWebP, MIMEType: MIMETypeWebP, DisplayName: "WebP", Signature: []byte("RIFF"), Check: riffForm("WEBP")},
	{ID: FormatBMP, MIMEType: MIMETypeBMP, DisplayName: "BMP", Signature: []byte("BM")},
	{ID: FormatTIFF, MIMEType: MIMETypeTIFF, DisplayName: "TIFF", Signature: []byte{0x49, 0x49, 0x2A, 0x00}}, // Little endian
	{ID: FormatTIFF, MIMEType: MIMETypeTIFF, DisplayName: "TIFF", Signature: []byte{0x4D, 0x4D, 0x00, 0x2A}}, // Big endian
	{ID: FormatICO, MIMEType: MIMETypeICO, DisplayName: "ICO", Signature: []byte{0x00, 0x00, 0x01, 0x00}},
	{ID: FormatAVIF, MIMEType: MIMETypeAVIF, DisplayName: "AVIF", Offset: 4, Signature: []byte("ftyp"), Check: ftypBrand("avif", "avis")},
	{ID: FormatHEIC, MIMEType: MIMETypeHEIC, DisplayName: "HEIC", Offset: 4, Signature: []byte("ftyp"), Check: ftypBrand("heic", "heix", "hevc", "hevx", "mif1", "msf1")},
}

// svgFormat has no binary signature; it is matched by the text fallback.
var svgFormat = FormatDescriptor{ID: FormatSVG, MIMEType: MIMETypeSVG, DisplayName: "SVG"}

// svgMarkers are searched for in the decoded sniff window.
var svgMarkers = [][]byte{[]byte("<?xml"), []byte("<svg")}

// riffForm matches the four-byte form type at offset 8 of a RIFF header.
func riffForm(form string) func([]byte) bool {
	return func(window []byte) bool {
		return len(window) >= 12 && string(window[8:12]) == form
	}
}

// ftypBrand matches the major brand at offset 8 of an ISO-BMFF ftyp box.
func ftypBrand(brands ...string) func([]byte) bool {
	return func(window []byte) bool {
		if len(window) < 12 {
			return false
		}
		major := string(window[8:12])
		for _, b := range brands {
			if major == b {
				return true
			}
		}
		return false
	}
}

// matches reports whether the descriptor's signature and optional check hold
// for the window. Windows shorter than the signature never match.
func (d FormatDescriptor) matches(window []byte) bool {
	end := d.Offset + len(d.Signature)
	if len(d.Signature) == 0 || end > len(window) {
		return false
	}
	if !bytes.Equal(window[d.Offset:end], d.Signature) {
		return false
	}
	if d.Check != nil && !d.Check(window) {
		return false
	}
	return true
}

// Formats returns a copy of the descriptor table in match order, followed by
// the SVG text descriptor.
func Formats() []FormatDescriptor {
	out := make([]FormatDescriptor, 0, len(formats)+1)
	out = append(out, formats...)
	return append(out, svgFormat)
}

// Lookup returns the descriptor for a MIME type, or false if the type is not
// in the table.
func Lookup(mimeType string) (FormatDescriptor, bool) {
	if mimeType == "image/jpg" {
		mimeType = MIMETypeJPEG
	}
	for _, d := range formats {
		if d.MIMEType == mimeType {
			return d, true
		}
	}
	if mimeType == svgFormat.MIMEType {
		return svgFormat, true
	}
	return FormatDescriptor{}, false
}

// DisplayName returns a human readable name for a MIME type. Types outside
// the table fall back to the MIME type itself.
func DisplayName(mimeType string) string {
	if d, ok := Lookup(mimeType); ok {
		return d.DisplayName
	}
	return mimeType
}
