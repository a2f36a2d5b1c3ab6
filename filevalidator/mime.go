package filevalidator

import (
	"path/filepath"
	"strings"

	"github.com/gobeaver/imgconvert/sniffer"
)

// supportedInputTypes are the declared types the synchronous stage accepts
// explicitly. Anything else starting with "image/" is accepted as well.
var supportedInputTypes = []string{
	sniffer.MIMETypeJPEG,
	"image/jpg",
	sniffer.MIMETypePNG,
	sniffer.MIMETypeGIF,
	sniffer.MIMETypeWebP,
	sniffer.MIMETypeBMP,
	sniffer.MIMETypeTIFF,
	sniffer.MIMETypeICO,
	"image/vnd.microsoft.icon",
	sniffer.MIMETypeAVIF,
	sniffer.MIMETypeHEIC,
	"image/heif",
	sniffer.MIMETypeSVG,
}

// Common extension to MIME type mapping
var extensionToMimeType = map[string]string{
	".jpg":  sniffer.MIMETypeJPEG,
	".jpeg": sniffer.MIMETypeJPEG,
	".jpe":  sniffer.MIMETypeJPEG,
	".png":  sniffer.MIMETypePNG,
	".gif":  sniffer.MIMETypeGIF,
	".webp": sniffer.MIMETypeWebP,
	".bmp":  sniffer.MIMETypeBMP,
	".tiff": sniffer.MIMETypeTIFF,
	".tif":  sniffer.MIMETypeTIFF,
	".ico":  sniffer.MIMETypeICO,
	".avif": sniffer.MIMETypeAVIF,
	".heic": sniffer.MIMETypeHEIC,
	".heif": "image/heif",
	".svg":  sniffer.MIMETypeSVG,
}

// SupportedInputTypes returns a copy of the explicitly supported input MIME types.
func SupportedInputTypes() []string {
	out := make([]string, len(supportedInputTypes))
	copy(out, supportedInputTypes)
	return out
}

// MIMETypeForExtension returns the MIME type for a given file extension
// Returns empty string if the extension is not recognized
func MIMETypeForExtension(ext string) string {
	return extensionToMimeType[strings.ToLower(ext)]
}

// MIMETypeForFilename returns the MIME type implied by a file name's extension.
func MIMETypeForFilename(name string) string {
	return MIMETypeForExtension(filepath.Ext(name))
}

// IsImageMIME reports whether a declared type belongs to the image family.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
