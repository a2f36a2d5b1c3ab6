package imgconvert

import (
	"path/filepath"
	"strings"

	"github.com/gobeaver/imgconvert/pipeline"
)

// OutputName replaces the extension of src with the one for mimeType.
// "holiday.HEIC" converted to image/jpeg becomes "holiday.jpg".
func OutputName(src, mimeType string) string {
	base := filepath.Base(src)
	if base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	ext := ".bin"
	if f, ok := pipeline.LookupFormat(mimeType); ok {
		ext = f.Extension
	}
	return stem + ext
}
