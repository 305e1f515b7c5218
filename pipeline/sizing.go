package pipeline

import (
	"image"
	"math"
)

// Canvas returns the default output canvas for a rotated source: 1.5x the
// source extent, truncated. This deliberately over-allocates for angles up
// to 45 degrees (the true worst case is sqrt(2)) and may clip content for
// angles outside that range; callers needing exact bounds use TightCanvas.
func Canvas(width, height int) (int, int) {
	// width*3/2 is floor(1.5*width) for positive ints, no float round trip.
	return width * 3 / 2, height * 3 / 2
}

// TightCanvas computes the exact bounding box of the source rectangle after
// rotating it by angleDeg degrees about center (positive angles rotate the
// positive x axis toward the positive y axis, the Device convention), using
// the transformed corner coordinates. The result can extend
// into negative coordinates; its Min is the offset of the rotated content.
func TightCanvas(width, height int, angleDeg float64, center image.Point) image.Rectangle {
	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx := float64(center.X)
	cy := float64(center.Y)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {float64(width), 0}, {0, float64(height)}, {float64(width), float64(height)}} {
		dx := c[0] - cx
		dy := c[1] - cy
		x := cx + dx*cos - dy*sin
		y := cy + dx*sin + dy*cos
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	// Snap before rounding so axis-aligned angles are not widened by
	// floating-point residue in sin/cos.
	const snap = 1e-9
	return image.Rect(
		int(math.Floor(minX+snap)), int(math.Floor(minY+snap)),
		int(math.Ceil(maxX-snap)), int(math.Ceil(maxY-snap)),
	)
}

// DefaultCenter is the geometric center of the source by integer division.
// For odd dimensions this truncates toward zero; the half-pixel offset is
// accepted rather than corrected.
func DefaultCenter(width, height int) image.Point {
	return image.Pt(width/2, height/2)
}
