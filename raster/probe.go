package raster

import (
	"context"
	"image"
	"image/color"

	"github.com/gobeaver/imgconvert/pipeline"
	"github.com/gobeaver/imgconvert/sniffer"
)

// ProbeFormats returns the output formats host can really produce. Each
// candidate is converted from a 1x1 image and kept only when the output
// sniffs as the requested format, so an encoder that silently falls back to
// another format is not advertised.
func ProbeFormats(ctx context.Context, host pipeline.Host) []pipeline.OutputFormat {
	px := image.NewRGBA(image.Rect(0, 0, 1, 1))
	px.Set(0, 0, color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff})
	src := NewImage(px, sniffer.MIMETypePNG)

	var supported []pipeline.OutputFormat
	for _, f := range pipeline.OutputFormats() {
		if ctx.Err() != nil {
			break
		}

		res, err := pipeline.Convert(ctx, host, src, pipeline.Settings{Format: f.MIMEType, Quality: 0.5})
		if err != nil {
			continue
		}
		if got := sniffer.DetectBytes(res.Data); got == nil || got.MIMEType != f.MIMEType {
			continue
		}
		supported = append(supported, f)
	}
	return supported
}
