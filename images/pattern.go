package images

const (
	// checkerTile is the edge length of one checkerboard tile.
	checkerTile = 32
	// checkerWhite and checkerGray are the two tile values.
	checkerWhite = 255
	checkerGray  = 64
)

// Checkerboard generates a deterministic test pattern used as a fallback
// input when no source image is available.
//
// The canvas is partitioned into 32x32 tiles; a tile at tile coordinates
// (tx, ty) is white (255) when tx+ty is even and gray (64) otherwise. The
// same dimensions always yield a byte-identical buffer.
//
// Checkerboard panics on non-positive dimensions.
func Checkerboard(width, height int) *Image {
	img := New(width, height)
	for y := 0; y < height; y++ {
		row := img.Row(y)
		ty := y / checkerTile
		for x := 0; x < width; x++ {
			if (x/checkerTile+ty)%2 == 0 {
				row[x] = checkerWhite
			} else {
				row[x] = checkerGray
			}
		}
	}
	return img
}
