package pipeline

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuimage/rotate/backends"
	"github.com/gpuimage/rotate/images"
)

// mockDevice is a deterministic in-memory Device that records every call.
// Its Rotate copies the source buffer into the destination origin so tests
// can trace output content back to the input.
type mockDevice struct {
	major, minor int
	rotateErr    error

	uploads []*images.Image
	allocs  []image.Point
	rotates []rotateCall
	buffers []*mockBuffer
	closed  bool
}

type rotateCall struct {
	srcROI, dstROI image.Rectangle
	origin         image.Point
	angle          float64
	center         image.Point
	interp         backends.Interpolation
}

type mockBuffer struct {
	img      *images.Image
	released bool
}

func (b *mockBuffer) Width() int  { return b.img.Width }
func (b *mockBuffer) Height() int { return b.img.Height }
func (b *mockBuffer) Release()    { b.released = true }

func newMockDevice() *mockDevice {
	return &mockDevice{major: 1, minor: 0}
}

func (d *mockDevice) Name() string        { return "mock" }
func (d *mockDevice) Version() (int, int) { return d.major, d.minor }

func (d *mockDevice) Capable(minMajor, minMinor int) bool {
	if d.major != minMajor {
		return d.major > minMajor
	}
	return d.minor >= minMinor
}

func (d *mockDevice) Upload(img *images.Image) (backends.Buffer, error) {
	d.uploads = append(d.uploads, img.Clone())
	return d.track(img.Clone()), nil
}

func (d *mockDevice) Alloc(width, height int) (backends.Buffer, error) {
	d.allocs = append(d.allocs, image.Pt(width, height))
	return d.track(images.New(width, height)), nil
}

func (d *mockDevice) Download(buf backends.Buffer) (*images.Image, error) {
	return buf.(*mockBuffer).img.Clone(), nil
}

func (d *mockDevice) Rotate(src backends.Buffer, srcROI image.Rectangle, dst backends.Buffer, dstROI image.Rectangle,
	dstOrigin image.Point, angleDeg float64, center image.Point, interp backends.Interpolation,
) error {
	d.rotates = append(d.rotates, rotateCall{
		srcROI: srcROI, dstROI: dstROI, origin: dstOrigin, angle: angleDeg, center: center, interp: interp,
	})
	if d.rotateErr != nil {
		return d.rotateErr
	}
	s := src.(*mockBuffer).img
	t := dst.(*mockBuffer).img
	for y := 0; y < min(s.Height, t.Height); y++ {
		copy(t.Row(y), s.Row(y)[:min(s.Width, t.Width)])
	}
	return nil
}

func (d *mockDevice) Close() error {
	d.closed = true
	return nil
}

func (d *mockDevice) track(img *images.Image) *mockBuffer {
	b := &mockBuffer{img: img}
	d.buffers = append(d.buffers, b)
	return b
}

func (d *mockDevice) allReleased() bool {
	for _, b := range d.buffers {
		if !b.released {
			return false
		}
	}
	return true
}

func TestRunCapabilitySkip(t *testing.T) {
	dev := newMockDevice()
	dev.major, dev.minor = 0, 9

	out := filepath.Join(t.TempDir(), "out.pgm")
	p := New(dev, Options{Output: out})
	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrCapabilityUnmet)

	assert.Empty(t, dev.uploads, "pipeline must not start below minimum capability")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunFallsBackToPattern(t *testing.T) {
	dev := newMockDevice()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pgm")

	p := New(dev, Options{
		Input:  filepath.Join(dir, "missing.pgm"),
		Output: out,
		Angle:  45,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err, "a missing input must not fail the run")

	// The uploaded source is the 512x512 checkerboard.
	require.Len(t, dev.uploads, 1)
	src := dev.uploads[0]
	assert.Equal(t, 512, src.Width)
	assert.Equal(t, uint8(255), src.At(0, 0))
	assert.Equal(t, uint8(64), src.At(32, 0))

	// Canvas follows the 1.5x heuristic.
	require.Len(t, dev.allocs, 1)
	assert.Equal(t, image.Pt(768, 768), dev.allocs[0])

	// The output derives from the pattern (mock copies src to origin).
	got, err := images.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 768, got.Width)
	assert.Equal(t, uint8(255), got.At(0, 0))

	assert.True(t, dev.allReleased())
}

func TestRunLoadsInputAndDefaultsCenter(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pgm")
	require.NoError(t, images.WriteFile(in, images.Checkerboard(100, 60)))

	dev := newMockDevice()
	p := New(dev, Options{
		Input:  in,
		Output: filepath.Join(dir, "out.pgm"),
		Angle:  30,
		Interp: backends.InterpBilinear,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, dev.rotates, 1)
	call := dev.rotates[0]
	assert.Equal(t, image.Rect(0, 0, 100, 60), call.srcROI)
	assert.Equal(t, image.Rect(0, 0, 150, 90), call.dstROI)
	assert.Equal(t, image.Point{}, call.origin, "heuristic canvas starts at the source origin")
	assert.Equal(t, image.Pt(50, 30), call.center)
	assert.Equal(t, 30.0, call.angle)
	assert.Equal(t, backends.InterpBilinear, call.interp)
}

func TestRunTightBoundsPassesCanvasOrigin(t *testing.T) {
	dev := newMockDevice()
	dir := t.TempDir()
	p := New(dev, Options{
		Output:        filepath.Join(dir, "out.pgm"),
		Angle:         90,
		TightBounds:   true,
		PatternWidth:  100,
		PatternHeight: 50,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	// TightCanvas(100, 50, 90, (50,25)) = (25,-25)-(75,75): a 50x100
	// destination. Its corner becomes the destination origin while the
	// rotation center stays in source coordinates.
	require.Len(t, dev.allocs, 1)
	assert.Equal(t, image.Pt(50, 100), dev.allocs[0])

	require.Len(t, dev.rotates, 1)
	call := dev.rotates[0]
	assert.Equal(t, image.Rect(0, 0, 50, 100), call.dstROI)
	assert.Equal(t, image.Pt(25, -25), call.origin)
	assert.Equal(t, image.Pt(50, 25), call.center)
}

func TestRunTightBoundsPreservesContent(t *testing.T) {
	// End-to-end through the real device: a 100x50 gradient turned 90
	// degrees into the tight 50x100 canvas must carry every interior row
	// across, translated by the canvas corner rather than re-rotated.
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pgm")
	src := images.New(100, 50)
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, uint8(1+(y*100+x)%250))
		}
	}
	require.NoError(t, images.WriteFile(in, src))

	out := filepath.Join(dir, "out.pgm")
	p := New(backends.NewCPUDevice(backends.CPUOptions{}), Options{
		Input:       in,
		Output:      out,
		Angle:       90,
		TightBounds: true,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	got, err := images.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, 50, got.Width)
	require.Equal(t, 100, got.Height)

	// Destination (bx,by) samples source (by, 50-bx).
	assert.Equal(t, src.At(10, 10), got.At(40, 10))
	assert.Equal(t, src.At(99, 49), got.At(1, 99))

	// Every source pixel except row 0, which rotates onto the canvas's
	// exclusive edge, lands in the output.
	covered := 0
	for _, v := range got.Pix {
		if v != 0 {
			covered++
		}
	}
	assert.Equal(t, 49*100, covered)
}

func TestRunBackendErrorPropagates(t *testing.T) {
	dev := newMockDevice()
	dev.rotateErr = &backends.BackendError{Device: "mock", Op: "rotate", Err: errors.New("kernel launch failed")}

	out := filepath.Join(t.TempDir(), "out.pgm")
	p := New(dev, Options{Output: out})
	_, err := p.Run(context.Background())

	var be *backends.BackendError
	require.True(t, errors.As(err, &be))
	assert.True(t, dev.allReleased(), "buffers must be released on the error path")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output after a backend failure")
}

func TestRunOutputErrorIsFatal(t *testing.T) {
	dev := newMockDevice()
	p := New(dev, Options{Output: filepath.Join(t.TempDir(), "no-such-dir", "out.pgm")})
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, dev.allReleased())
}

func TestRunWritesPreview(t *testing.T) {
	dev := newMockDevice()
	dir := t.TempDir()
	previewPath := filepath.Join(dir, "out.png")

	p := New(dev, Options{
		Output:         filepath.Join(dir, "out.pgm"),
		PreviewPath:    previewPath,
		PreviewMaxEdge: 128,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(previewPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 128)
	assert.LessOrEqual(t, cfg.Height, 128)
}

func TestRunReportsStageTimings(t *testing.T) {
	dev := newMockDevice()
	p := New(dev, Options{Output: filepath.Join(t.TempDir(), "out.pgm")})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	report := p.Timer().Report()
	for _, stage := range []string{"load", "upload", "rotate", "download", "save"} {
		assert.Contains(t, report, stage+"=")
	}
}
