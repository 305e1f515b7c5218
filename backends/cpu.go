package backends

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/gpuimage/rotate/images"
)

const cpuDeviceName = "cpu"

// CPUOptions configures the pure-Go provider.
type CPUOptions struct {
	// Workers is the number of goroutines used per rotation. Zero or
	// negative means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

func (CPUOptions) isOptions() {}

// CPUDevice is a pure-Go rotation provider. "Device" buffers are private
// host-memory copies, so uploads and downloads have the same copy semantics
// as a real accelerator without the transfer cost.
type CPUDevice struct {
	opts CPUOptions
}

// NewCPUDevice creates the pure-Go provider.
func NewCPUDevice(opts CPUOptions) *CPUDevice {
	return &CPUDevice{opts: opts}
}

// cpuBuffer is a host-memory "device" buffer.
type cpuBuffer struct {
	img *images.Image
}

func (b *cpuBuffer) Width() int {
	if b.img == nil {
		return 0
	}
	return b.img.Width
}

func (b *cpuBuffer) Height() int {
	if b.img == nil {
		return 0
	}
	return b.img.Height
}

// Release drops the buffer. Safe to call more than once.
func (b *cpuBuffer) Release() {
	b.img = nil
}

// Name returns the provider name.
func (d *CPUDevice) Name() string { return cpuDeviceName }

// Version reports the capability version. The pure-Go path has no hardware
// requirement, so it always satisfies the demo's 1.0 minimum.
func (d *CPUDevice) Version() (int, int) { return 1, 0 }

// Capable reports whether the provider meets a minimum version.
func (d *CPUDevice) Capable(minMajor, minMinor int) bool {
	return capable(d, minMajor, minMinor)
}

// Upload copies img into a private buffer.
func (d *CPUDevice) Upload(img *images.Image) (Buffer, error) {
	if img == nil {
		return nil, backendErrorf(cpuDeviceName, "upload", "nil image")
	}
	return &cpuBuffer{img: img.Clone()}, nil
}

// Alloc creates a zeroed buffer.
func (d *CPUDevice) Alloc(width, height int) (Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, backendErrorf(cpuDeviceName, "alloc", "invalid dimensions %dx%d", width, height)
	}
	return &cpuBuffer{img: images.New(width, height)}, nil
}

// Download copies a buffer back to host memory.
func (d *CPUDevice) Download(buf Buffer) (*images.Image, error) {
	b, err := d.ownBuffer("download", buf)
	if err != nil {
		return nil, err
	}
	return b.img.Clone(), nil
}

// Rotate performs an affine rotation by inverse mapping: every destination
// pixel is traced back into the source plane with the transform
//
//	xs = cx + dx*cos(a) + dy*sin(a)
//	ys = cy - dx*sin(a) + dy*cos(a)
//
// where (dx, dy) is the destination pixel, placed at dstOrigin plus its
// buffer coordinate, relative to the rotation center. Samples falling
// outside srcROI are written as 0.
func (d *CPUDevice) Rotate(src Buffer, srcROI image.Rectangle, dst Buffer, dstROI image.Rectangle,
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
	if err := validateROIs(cpuDeviceName, src, srcROI, dst, dstROI); err != nil {
		return err
	}
	if interp != InterpNearest && interp != InterpBilinear {
		return backendErrorf(cpuDeviceName, "rotate", "unsupported interpolation %v", interp)
	}
	if dstROI.Empty() {
		return nil
	}

	rad := float32(angleDeg) * math32.Pi / 180
	sin, cos := math32.Sincos(rad)
	cx := float32(center.X)
	cy := float32(center.Y)

	images.Parallel(dstROI.Dy(), d.opts.Workers, func(start, end int) {
		for y := start; y < end; y++ {
			gy := dstROI.Min.Y + y
			row := t.img.Row(gy)
			dy := float32(gy+dstOrigin.Y) - cy
			for gx := dstROI.Min.X; gx < dstROI.Max.X; gx++ {
				dx := float32(gx+dstOrigin.X) - cx
				xs := cx + dx*cos + dy*sin
				ys := cy - dx*sin + dy*cos
				if interp == InterpNearest {
					row[gx] = sampleNearest(s.img, srcROI, xs, ys)
				} else {
					row[gx] = sampleBilinear(s.img, srcROI, xs, ys)
				}
			}
		}
	})
	return nil
}

// Close is a no-op for the pure-Go provider.
func (d *CPUDevice) Close() error { return nil }

// ownBuffer rejects buffers created by a different provider.
func (d *CPUDevice) ownBuffer(op string, buf Buffer) (*cpuBuffer, error) {
	b, ok := buf.(*cpuBuffer)
	if !ok {
		return nil, backendErrorf(cpuDeviceName, op, "foreign buffer %T", buf)
	}
	if b.img == nil {
		return nil, backendErrorf(cpuDeviceName, op, "released buffer")
	}
	return b, nil
}

// sampleNearest reads the source pixel closest to (xs, ys), or 0 when the
// rounded coordinate falls outside roi.
func sampleNearest(src *images.Image, roi image.Rectangle, xs, ys float32) uint8 {
	x := int(math32.Round(xs))
	y := int(math32.Round(ys))
	if x < roi.Min.X || x >= roi.Max.X || y < roi.Min.Y || y >= roi.Max.Y {
		return 0
	}
	return src.At(x, y)
}

// sampleBilinear blends the four pixels surrounding (xs, ys). Neighbors
// outside roi contribute 0, matching the nearest mode's black border.
func sampleBilinear(src *images.Image, roi image.Rectangle, xs, ys float32) uint8 {
	x0 := int(math32.Floor(xs))
	y0 := int(math32.Floor(ys))
	fx := xs - float32(x0)
	fy := ys - float32(y0)

	sample := func(x, y int) float32 {
		if x < roi.Min.X || x >= roi.Max.X || y < roi.Min.Y || y >= roi.Max.Y {
			return 0
		}
		return float32(src.At(x, y))
	}

	v := sample(x0, y0)*(1-fx)*(1-fy) +
		sample(x0+1, y0)*fx*(1-fy) +
		sample(x0, y0+1)*(1-fx)*fy +
		sample(x0+1, y0+1)*fx*fy
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// capable compares a provider version against a minimum.
func capable(d Device, minMajor, minMinor int) bool {
	major, minor := d.Version()
	if major != minMajor {
		return major > minMajor
	}
	return minor >= minMinor
}
