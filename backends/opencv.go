package backends

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/gpuimage/rotate/images"
)

const opencvDeviceName = "opencv"

// OpenCVOptions configures the OpenCV-accelerated provider.
type OpenCVOptions struct {
	// BorderValue fills destination pixels with no source coverage.
	BorderValue int `mapstructure:"border_value" yaml:"border_value"`
}

func (OpenCVOptions) isOptions() {}

// OpenCVDevice rotates through OpenCV's warpAffine. Buffers are Mats, so
// uploads and downloads cross the cgo boundary the way a real device
// transfer would.
type OpenCVDevice struct {
	opts OpenCVOptions
}

// NewOpenCVDevice creates the OpenCV provider.
func NewOpenCVDevice(opts OpenCVOptions) *OpenCVDevice {
	return &OpenCVDevice{opts: opts}
}

// matBuffer wraps a single-channel 8-bit Mat.
type matBuffer struct {
	mat      gocv.Mat
	released bool
}

func (b *matBuffer) Width() int {
	if b.released {
		return 0
	}
	return b.mat.Cols()
}

func (b *matBuffer) Height() int {
	if b.released {
		return 0
	}
	return b.mat.Rows()
}

// Release closes the underlying Mat. Safe to call more than once.
func (b *matBuffer) Release() {
	if !b.released {
		b.mat.Close()
		b.released = true
	}
}

// Name returns the provider name.
func (d *OpenCVDevice) Name() string { return opencvDeviceName }

// Version reports the linked OpenCV runtime version.
func (d *OpenCVDevice) Version() (int, int) {
	return parseRuntimeVersion(gocv.OpenCVVersion())
}

// Capable reports whether the provider meets a minimum version.
func (d *OpenCVDevice) Capable(minMajor, minMinor int) bool {
	return capable(d, minMajor, minMinor)
}

// Upload packs img into a CV_8UC1 Mat. Stride padding is stripped so the
// Mat holds exactly Width*Height bytes.
func (d *OpenCVDevice) Upload(img *images.Image) (Buffer, error) {
	if img == nil {
		return nil, backendErrorf(opencvDeviceName, "upload", "nil image")
	}
	packed := img
	if img.Stride != img.Width {
		packed = img.Clone()
	}
	mat, err := gocv.NewMatFromBytes(packed.Height, packed.Width, gocv.MatTypeCV8UC1, packed.Pix)
	if err != nil {
		return nil, &BackendError{Device: opencvDeviceName, Op: "upload", Err: err}
	}
	return &matBuffer{mat: mat}, nil
}

// Alloc creates a zero-filled Mat.
func (d *OpenCVDevice) Alloc(width, height int) (Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, backendErrorf(opencvDeviceName, "alloc", "invalid dimensions %dx%d", width, height)
	}
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
	return &matBuffer{mat: mat}, nil
}

// Download copies a Mat back into a host image.
func (d *OpenCVDevice) Download(buf Buffer) (*images.Image, error) {
	b, err := d.ownBuffer("download", buf)
	if err != nil {
		return nil, err
	}
	img := images.New(b.mat.Cols(), b.mat.Rows())
	copy(img.Pix, b.mat.ToBytes())
	return img, nil
}

// Rotate builds the affine rotation matrix about center and warps the
// source region into the destination region. ROI and destination-origin
// offsets are folded into the matrix translation so both regions stay in
// source-plane coordinates. getRotationMatrix2D treats positive angles as
// the opposite direction from the Device contract, so the angle is negated.
func (d *OpenCVDevice) Rotate(src Buffer, srcROI image.Rectangle, dst Buffer, dstROI image.Rectangle,
	dstOrigin image.Point, angleDeg float64, center image.Point, interp Interpolation,
) error {
	s, err := d.ownBuffer("rotate", src)
	if err != nil {
		return err
	}
	t, err := d.ownBuffer("rotate", dst)
	if err != nil {
		return err
	}
	if err := validateROIs(opencvDeviceName, src, srcROI, dst, dstROI); err != nil {
		return err
	}
	if srcROI.Empty() || dstROI.Empty() {
		return nil
	}

	var flags gocv.InterpolationFlags
	switch interp {
	case InterpNearest:
		flags = gocv.InterpolationNearestNeighbor
	case InterpBilinear:
		flags = gocv.InterpolationLinear
	default:
		return backendErrorf(opencvDeviceName, "rotate", "unsupported interpolation %v", interp)
	}

	m := gocv.GetRotationMatrix2D(center, -angleDeg, 1.0)
	defer m.Close()
	shiftAffine(&m, srcROI.Min, dstOrigin.Add(dstROI.Min))

	srcView := s.mat.Region(srcROI)
	defer srcView.Close()
	dstView := t.mat.Region(dstROI)
	defer dstView.Close()

	border := d.opts.BorderValue
	gocv.WarpAffineWithParams(srcView, &dstView, m,
		image.Pt(dstROI.Dx(), dstROI.Dy()), flags, gocv.BorderConstant,
		color.RGBA{R: uint8(border), G: uint8(border), B: uint8(border)})
	return nil
}

// Close is a no-op; Mats are owned by their buffers.
func (d *OpenCVDevice) Close() error { return nil }

func (d *OpenCVDevice) ownBuffer(op string, buf Buffer) (*matBuffer, error) {
	b, ok := buf.(*matBuffer)
	if !ok {
		return nil, backendErrorf(opencvDeviceName, op, "foreign buffer %T", buf)
	}
	if b.released {
		return nil, backendErrorf(opencvDeviceName, op, "released buffer")
	}
	return b, nil
}

// shiftAffine rebases a 2x3 affine matrix from full-image coordinates onto
// region views: source samples gain the srcMin offset, destination results
// lose the dstMin offset.
func shiftAffine(m *gocv.Mat, srcMin, dstMin image.Point) {
	for row, dst := range []int{dstMin.X, dstMin.Y} {
		a0 := m.GetDoubleAt(row, 0)
		a1 := m.GetDoubleAt(row, 1)
		tr := m.GetDoubleAt(row, 2)
		m.SetDoubleAt(row, 2, a0*float64(srcMin.X)+a1*float64(srcMin.Y)+tr-float64(dst))
	}
}
