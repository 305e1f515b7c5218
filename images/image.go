// Package images - single-channel 8-bit raster images, the PGM container
// codec, and the synthetic test pattern generator.
package images

import (
	"fmt"
	"image"
)

// Image is an 8-bit grayscale raster. Pixel data is row-major; Stride is the
// distance between the starts of consecutive rows and may exceed Width to
// allow padding. Invariants: Stride >= Width and len(Pix) >= Height*Stride.
type Image struct {
	// Width is the number of samples per row.
	Width int
	// Height is the number of rows.
	Height int
	// MaxVal is the maximum sample value, conventionally 255.
	MaxVal int
	// Stride is the row-to-row distance in bytes.
	Stride int
	// Pix holds the samples.
	Pix []uint8
}

// New allocates a zeroed image with Stride == Width and MaxVal 255.
func New(width, height int) *Image {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("images: invalid dimensions %dx%d", width, height))
	}
	return &Image{
		Width:  width,
		Height: height,
		MaxVal: 255,
		Stride: width,
		Pix:    make([]uint8, width*height),
	}
}

// Bounds returns the image extent as a rectangle anchored at the origin.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Row returns the samples of row y, excluding any stride padding.
func (m *Image) Row(y int) []uint8 {
	off := y * m.Stride
	return m.Pix[off : off+m.Width]
}

// At returns the sample at (x, y). The caller is responsible for bounds.
func (m *Image) At(x, y int) uint8 {
	return m.Pix[y*m.Stride+x]
}

// Set stores a sample at (x, y). The caller is responsible for bounds.
func (m *Image) Set(x, y int, v uint8) {
	m.Pix[y*m.Stride+x] = v
}

// Clone returns a deep copy with padding removed (Stride == Width).
func (m *Image) Clone() *Image {
	out := New(m.Width, m.Height)
	out.MaxVal = m.MaxVal
	for y := 0; y < m.Height; y++ {
		copy(out.Row(y), m.Row(y))
	}
	return out
}
