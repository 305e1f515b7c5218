package images

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerboardDeterminism(t *testing.T) {
	a := Checkerboard(512, 512)
	b := Checkerboard(512, 512)
	assert.True(t, bytes.Equal(a.Pix, b.Pix), "same dimensions must yield identical buffers")
}

func TestCheckerboardTileParity(t *testing.T) {
	img := Checkerboard(512, 512)

	testCases := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 255},
		{31, 31, 255}, // still inside the first tile
		{32, 0, 64},
		{64, 0, 255},
		{0, 32, 64},
		{32, 32, 255}, // diagonal neighbor shares parity
		{511, 511, 255},
	}
	for _, tc := range testCases {
		assert.Equalf(t, tc.want, img.At(tc.x, tc.y), "sample at (%d,%d)", tc.x, tc.y)
	}
}

func TestCheckerboardOddDimensions(t *testing.T) {
	// Tiles at the right and bottom edges may be partial; the parity rule
	// still applies to every sample.
	img := Checkerboard(50, 70)
	assert.Equal(t, uint8(64), img.At(49, 20))  // tile (1,0)
	assert.Equal(t, uint8(255), img.At(10, 69)) // tile (0,2)
}

func TestCheckerboardRejectsNonPositiveDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {5, -1}} {
		require.Panicsf(t, func() { Checkerboard(dims[0], dims[1]) }, "dimensions %v", dims)
	}
}
