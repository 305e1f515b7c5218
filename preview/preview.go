// Package preview - PNG previews of grayscale rasters.
//
// PGM viewers are rare; the original demo shelled out to ImageMagick to get
// a viewable file. The preview writer does the conversion in-process.
package preview

import (
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/gpuimage/rotate/images"
)

// WritePNG encodes img as a PNG at path. When maxEdge is positive and the
// image exceeds it, the preview is downscaled with Lanczos resampling so
// its longest edge is at most maxEdge.
func WritePNG(path string, img *images.Image, maxEdge int) error {
	gray := toGray(img)

	var out image.Image = gray
	if maxEdge > 0 && (img.Width > maxEdge || img.Height > maxEdge) {
		out = resize.Thumbnail(uint(maxEdge), uint(maxEdge), gray, resize.Lanczos3)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create preview %s", path)
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode preview %s", path)
	}
	return errors.Wrapf(f.Close(), "close preview %s", path)
}

// toGray copies the raster into a stdlib image.Gray, dropping any stride
// padding.
func toGray(img *images.Image) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		copy(gray.Pix[y*gray.Stride:y*gray.Stride+img.Width], img.Row(y))
	}
	return gray
}
