package raster

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/png"
	"io"

	"github.com/gen2brain/jpegn"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"github.com/gobeaver/imgconvert/sniffer"
)

var (
	// ErrUnsupportedInput is returned for content this host cannot decode,
	// including formats the sniffer recognizes but no decoder handles
	// (SVG, ICO, AVIF, HEIC).
	ErrUnsupportedInput = errors.New("raster: unsupported input format")

	// ErrNoEncoder is returned by Encode for a format without an encoder
	ErrNoEncoder = errors.New("raster: no encoder for format")
)

type decoder struct {
	decode func(r io.Reader) (image.Image, error)
	config func(r io.Reader) (image.Config, error)
}

var decoders = map[string]decoder{
	sniffer.MIMETypeJPEG: {
		decode: func(r io.Reader) (image.Image, error) {
			return jpegn.Decode(r, &jpegn.Options{UpsampleMethod: jpegn.CatmullRom})
		},
		config: jpegn.DecodeConfig,
	},
	sniffer.MIMETypePNG:  {decode: png.Decode, config: png.DecodeConfig},
	sniffer.MIMETypeGIF:  {decode: gif.Decode, config: gif.DecodeConfig},
	sniffer.MIMETypeWebP: {decode: xwebp.Decode, config: xwebp.DecodeConfig},
	sniffer.MIMETypeBMP:  {decode: bmp.Decode, config: bmp.DecodeConfig},
	sniffer.MIMETypeTIFF: {decode: tiff.Decode, config: tiff.DecodeConfig},
}

// CanDecode reports whether the host has a decoder for mimeType
func CanDecode(mimeType string) bool {
	_, ok := decoders[mimeType]
	return ok
}

// Decode reads r to the end and decodes it according to its sniffed format.
func Decode(ctx context.Context, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "raster: read source")
	}
	return DecodeBytes(ctx, data)
}

// DecodeBytes decodes an in-memory image. The declared type of the data is
// never consulted; only its content decides the decoder.
func DecodeBytes(ctx context.Context, data []byte) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sniffed := sniffer.DetectBytes(data)
	if sniffed == nil {
		return nil, ErrUnsupportedInput
	}

	dec, ok := decoders[sniffed.MIMEType]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedInput, sniffed.DisplayName)
	}

	img, err := dec.decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "raster: decode %s", sniffed.DisplayName)
	}

	return NewImage(img, sniffed.MIMEType), nil
}

// DecodeConfig returns the dimensions and sniffed MIME type of an image
// without decoding its pixels.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(sniffer.WindowSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return image.Config{}, "", errors.Wrap(err, "raster: read header")
	}

	sniffed := sniffer.DetectBytes(head)
	if sniffed == nil {
		return image.Config{}, "", ErrUnsupportedInput
	}

	dec, ok := decoders[sniffed.MIMEType]
	if !ok {
		return image.Config{}, sniffed.MIMEType, errors.Wrap(ErrUnsupportedInput, sniffed.DisplayName)
	}

	cfg, err := dec.config(br)
	if err != nil {
		return image.Config{}, sniffed.MIMEType, errors.Wrapf(err, "raster: read %s header", sniffed.DisplayName)
	}
	return cfg, sniffed.MIMEType, nil
}
