package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gobeaver/imgconvert/sniffer"
)

type encodeFunc func(img image.Image, quality float64) ([]byte, error)

var encoders = map[string]encodeFunc{
	sniffer.MIMETypeJPEG: encodeJPEG,
	sniffer.MIMETypePNG:  encodePNG,
	sniffer.MIMETypeGIF:  encodeGIF,
	sniffer.MIMETypeBMP:  encodeBMP,
	sniffer.MIMETypeTIFF: encodeTIFF,
	sniffer.MIMETypeWebP: encodeWebP,
}

// jpegQuality maps [0, 1] onto the 1..100 scale used by the JPEG encoder.
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	switch {
	case v < 1:
		return 1
	case v > 100:
		return 100
	default:
		return v
	}
}

func encodeJPEG(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image, _ float64) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gifPalette is the web-safe palette with a fully transparent entry first.
// The GIF writer marks the first zero-alpha entry as the transparent index.
var gifPalette = append(color.Palette{color.Transparent}, palette.WebSafe...)

// encodeGIF dithers onto gifPalette with Floyd-Steinberg so transparent
// pixels stay transparent.
func encodeGIF(img image.Image, _ float64) ([]byte, error) {
	b := img.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), gifPalette)
	draw.FloydSteinberg.Draw(pm, pm.Rect, img, b.Min)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, pm, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeBMP(img image.Image, _ float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTIFF(img image.Image, _ float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeWebP always encodes lossy; quality 1.0 maps to lossy quality 100.
func encodeWebP(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(quality * 100)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
