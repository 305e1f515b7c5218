// Package pipeline - the rotation orchestrator.
//
// A run is a single linear sequence: load or synthesize the source, gate on
// device capability, upload, rotate, download, save. Input failures fall
// back to the generated test pattern; output and backend failures are fatal.
package pipeline

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/gpuimage/rotate/backends"
	"github.com/gpuimage/rotate/images"
	"github.com/gpuimage/rotate/preview"
	"github.com/gpuimage/rotate/profiler"
)

// Minimum device capability required to run the pipeline, mirroring the
// SM 1.0 floor of the demo this tool descends from.
const (
	MinMajor = 1
	MinMinor = 0
)

// ErrCapabilityUnmet signals a clean skip: the selected device does not
// meet the minimum capability and the pipeline was not attempted.
var ErrCapabilityUnmet = errors.New("pipeline: device below minimum capability")

// Options configures a pipeline run.
type Options struct {
	// Input is the source PGM path. Empty means synthesize the test
	// pattern instead of loading.
	Input string
	// Output is the destination PGM path.
	Output string
	// Angle is the rotation in degrees. Positive angles rotate the
	// positive x axis toward the positive y axis.
	Angle float64
	// Center overrides the rotation center; nil uses the source's
	// geometric center.
	Center *image.Point
	// Interp selects the sampling mode.
	Interp backends.Interpolation
	// TightBounds sizes the output canvas from the rotated corners
	// instead of the 1.5x heuristic.
	TightBounds bool
	// PatternWidth and PatternHeight size the fallback checkerboard.
	PatternWidth  int
	PatternHeight int
	// PreviewPath, when set, additionally writes a PNG preview there.
	PreviewPath string
	// PreviewMaxEdge bounds the preview's longest edge; zero keeps the
	// full resolution.
	PreviewMaxEdge int
	// Logf receives progress narration. Nil disables it.
	Logf func(format string, args ...interface{})
}

// Pipeline drives one rotation through a backend device.
type Pipeline struct {
	dev   backends.Device
	opts  Options
	timer *profiler.StageTimer
}

// New creates a pipeline for the given device. Zero-valued pattern
// dimensions default to the 512x512 checkerboard.
func New(dev backends.Device, opts Options) *Pipeline {
	if opts.PatternWidth <= 0 {
		opts.PatternWidth = 512
	}
	if opts.PatternHeight <= 0 {
		opts.PatternHeight = 512
	}
	return &Pipeline{dev: dev, opts: opts, timer: profiler.NewStageTimer()}
}

// Timer exposes the stage timings of the most recent run.
func (p *Pipeline) Timer() *profiler.StageTimer {
	return p.timer
}

// Run executes the pipeline and returns the rotated image. A device below
// the minimum capability returns ErrCapabilityUnmet without touching any
// buffer. Buffers acquired from the device are released on every exit path.
func (p *Pipeline) Run(ctx context.Context) (*images.Image, error) {
	if !p.dev.Capable(MinMajor, MinMinor) {
		major, minor := p.dev.Version()
		p.logf("device %s reports version %d.%d, below minimum %d.%d; skipping",
			p.dev.Name(), major, minor, MinMajor, MinMinor)
		return nil, ErrCapabilityUnmet
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop := p.timer.Start("load")
	srcImg := p.loadSource()
	stop()

	center := DefaultCenter(srcImg.Width, srcImg.Height)
	if p.opts.Center != nil {
		center = *p.opts.Center
	}
	srcROI := srcImg.Bounds()
	dstROI := p.canvas(srcImg, center)
	p.logf("rotating %dx%d by %.1f degrees about (%d,%d) into %dx%d canvas via %s",
		srcImg.Width, srcImg.Height, p.opts.Angle, center.X, center.Y,
		dstROI.Dx(), dstROI.Dy(), p.dev.Name())

	stop = p.timer.Start("upload")
	src, err := p.dev.Upload(srcImg)
	stop()
	if err != nil {
		return nil, err
	}
	defer src.Release()

	dst, err := p.dev.Alloc(dstROI.Dx(), dstROI.Dy())
	if err != nil {
		return nil, err
	}
	defer dst.Release()

	// The destination buffer is addressed from its own origin; the canvas
	// offset goes to the device as the destination origin, a pure output
	// translation that leaves the rotation center untouched.
	localROI := image.Rect(0, 0, dstROI.Dx(), dstROI.Dy())

	stop = p.timer.Start("rotate")
	err = p.dev.Rotate(src, srcROI, dst, localROI, dstROI.Min, p.opts.Angle, center, p.opts.Interp)
	stop()
	if err != nil {
		return nil, err
	}

	stop = p.timer.Start("download")
	out, err := p.dev.Download(dst)
	stop()
	if err != nil {
		return nil, err
	}

	stop = p.timer.Start("save")
	err = images.WriteFile(p.opts.Output, out)
	stop()
	if err != nil {
		return nil, err
	}
	p.logf("saved %s", p.opts.Output)

	if p.opts.PreviewPath != "" {
		if err := preview.WritePNG(p.opts.PreviewPath, out, p.opts.PreviewMaxEdge); err != nil {
			return nil, err
		}
		p.logf("saved preview %s", p.opts.PreviewPath)
	}

	p.logf("stages: %s", p.timer.Report())
	return out, nil
}

// loadSource reads the input image, substituting the checkerboard pattern
// when no input is configured or loading fails. Load failures are the only
// errors the pipeline downgrades.
func (p *Pipeline) loadSource() *images.Image {
	if p.opts.Input == "" {
		p.logf("no input configured; generating %dx%d checkerboard",
			p.opts.PatternWidth, p.opts.PatternHeight)
		return images.Checkerboard(p.opts.PatternWidth, p.opts.PatternHeight)
	}
	img, err := images.ReadFile(p.opts.Input)
	if err != nil {
		p.logf("input %s unavailable (%v); falling back to %dx%d checkerboard",
			p.opts.Input, err, p.opts.PatternWidth, p.opts.PatternHeight)
		return images.Checkerboard(p.opts.PatternWidth, p.opts.PatternHeight)
	}
	p.logf("loaded %s (%dx%d, max %d)", p.opts.Input, img.Width, img.Height, img.MaxVal)
	return img
}

// canvas picks the output rectangle in source coordinates.
func (p *Pipeline) canvas(src *images.Image, center image.Point) image.Rectangle {
	if p.opts.TightBounds {
		return TightCanvas(src.Width, src.Height, p.opts.Angle, center)
	}
	w, h := Canvas(src.Width, src.Height)
	return image.Rect(0, 0, w, h)
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.opts.Logf != nil {
		p.opts.Logf(format, args...)
	}
}
