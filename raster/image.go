// Package raster is the in-process host for the conversion pipeline. It
// decodes the formats golang.org/x/image and the standard library understand,
// draws onto RGBA surfaces and encodes every pipeline output format.
package raster

import (
	"image"
)

// Image is a decoded source image. It satisfies pipeline.Source and
// image.Image.
type Image struct {
	image.Image

	// Format is the MIME type the image was decoded from
	Format string
}

// NewImage wraps an already decoded image
func NewImage(img image.Image, format string) *Image {
	return &Image{Image: img, Format: format}
}

// Width returns the pixel width
func (i *Image) Width() int {
	return i.Bounds().Dx()
}

// Height returns the pixel height
func (i *Image) Height() int {
	return i.Bounds().Dy()
}
