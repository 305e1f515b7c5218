// Package backends - pluggable rotation devices.
//
// A Device owns all device-resident resources. The pipeline uploads a host
// image, allocates a destination buffer, invokes the rotation primitive and
// downloads the result; buffers are released by the caller on every exit
// path. Providers report failure explicitly and never mutate source buffers.
package backends

import (
	"fmt"
	"image"

	"github.com/gpuimage/rotate/images"
)

// Interpolation selects the sampling mode used by a rotation primitive.
type Interpolation int

const (
	// InterpNearest samples the nearest source pixel.
	InterpNearest Interpolation = iota
	// InterpBilinear blends the four surrounding source pixels.
	InterpBilinear
)

func (i Interpolation) String() string {
	switch i {
	case InterpNearest:
		return "nearest"
	case InterpBilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("interpolation(%d)", int(i))
	}
}

// ParseInterpolation maps a config token to an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "nearest", "nn":
		return InterpNearest, nil
	case "bilinear", "linear":
		return InterpBilinear, nil
	default:
		return 0, fmt.Errorf("backends: unknown interpolation %q", s)
	}
}

// Buffer is a device-resident image buffer. Release must be safe to call on
// every exit path, including after a failed operation.
type Buffer interface {
	Width() int
	Height() int
	Release()
}

// Device is the rotation backend contract.
type Device interface {
	// Name identifies the provider ("cpu", "opencv").
	Name() string
	// Version reports the provider's capability version.
	Version() (major, minor int)
	// Capable reports whether the provider meets a minimum version.
	Capable(minMajor, minMinor int) bool
	// Upload copies a host image into a device buffer.
	Upload(img *images.Image) (Buffer, error)
	// Alloc creates a zeroed device buffer.
	Alloc(width, height int) (Buffer, error)
	// Download copies a device buffer back into a host image.
	Download(buf Buffer) (*images.Image, error)
	// Rotate rotates src about center by angleDeg degrees into dst.
	// Positive angles rotate the positive x axis toward the positive
	// y axis. Sampling is restricted to srcROI; only dstROI is written.
	// dstOrigin places the destination buffer's origin in source-plane
	// coordinates, so a rotated bounding box with a negative corner can
	// land fully inside the buffer. The source buffer is never modified.
	Rotate(src Buffer, srcROI image.Rectangle, dst Buffer, dstROI image.Rectangle,
		dstOrigin image.Point, angleDeg float64, center image.Point, interp Interpolation) error
	// Close releases provider-wide resources.
	Close() error
}

// BackendError reports a failure inside a rotation provider.
type BackendError struct {
	Device string
	Op     string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErrorf(device, op, format string, args ...interface{}) error {
	return &BackendError{Device: device, Op: op, Err: fmt.Errorf(format, args...)}
}

// validateROIs rejects rotation requests whose regions do not fit the
// participating buffers. Empty destination regions are allowed and yield a
// no-op rotation.
func validateROIs(device string, src Buffer, srcROI image.Rectangle, dst Buffer, dstROI image.Rectangle) error {
	if srcROI.Dx() < 0 || srcROI.Dy() < 0 || dstROI.Dx() < 0 || dstROI.Dy() < 0 {
		return backendErrorf(device, "rotate", "negative ROI dimensions src=%v dst=%v", srcROI, dstROI)
	}
	if !srcROI.In(image.Rect(0, 0, src.Width(), src.Height())) && !srcROI.Empty() {
		return backendErrorf(device, "rotate", "source ROI %v outside %dx%d buffer", srcROI, src.Width(), src.Height())
	}
	if !dstROI.In(image.Rect(0, 0, dst.Width(), dst.Height())) && !dstROI.Empty() {
		return backendErrorf(device, "rotate", "destination ROI %v outside %dx%d buffer", dstROI, dst.Width(), dst.Height())
	}
	return nil
}
