// Command rotate loads a grayscale PGM image (falling back to a generated
// checkerboard when loading fails), rotates it through the configured
// backend, and writes the result as PGM with an optional PNG preview.
//
// Exit codes: 0 on success and on a clean capability skip, 1 on any error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/gpuimage/rotate/backends"
	"github.com/gpuimage/rotate/config"
	"github.com/gpuimage/rotate/pipeline"
)

func main() {
	var (
		configPath string
		input      string
		output     string
		angle      float64
		backend    string
		interp     string
		previewOut string
		tight      bool
		quiet      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&input, "input", "", "Input PGM path (empty generates a checkerboard)")
	flag.StringVar(&output, "output", "", "Output PGM path")
	flag.Float64Var(&angle, "angle", 0, "Rotation angle in degrees")
	flag.StringVar(&backend, "backend", "", "Rotation backend: cpu or opencv")
	flag.StringVar(&interp, "interp", "", "Interpolation: nearest or bilinear")
	flag.StringVar(&previewOut, "preview", "", "Optional PNG preview path")
	flag.BoolVar(&tight, "tight", false, "Size the canvas from the rotated corners instead of the 1.5x heuristic")
	flag.BoolVar(&quiet, "quiet", false, "Suppress progress output")
	flag.Parse()

	cfg := config.Defaults()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("rotate: %v", err)
		}
	}

	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = input
		case "output":
			cfg.Output = output
		case "angle":
			cfg.Angle = angle
		case "backend":
			cfg.Backend = backend
		case "interp":
			cfg.Interpolation = interp
		case "preview":
			cfg.Preview = previewOut
		case "tight":
			cfg.TightBounds = tight
		}
	})

	err := run(cfg, quiet)
	if errors.Is(err, pipeline.ErrCapabilityUnmet) {
		fmt.Println("device does not meet the minimum capability; nothing to do")
		return
	}
	if err != nil {
		log.Fatalf("rotate: %v", err)
	}
}

// run executes one pipeline pass. Panics from any layer are converted to
// errors so the process always terminates with a message and a non-zero
// exit code rather than a bare crash.
func run(cfg config.Config, quiet bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected failure: %v", r)
		}
	}()

	dev, err := backends.New(cfg.Backend, cfg.Options)
	if err != nil {
		return err
	}
	defer dev.Close()

	interp, err := backends.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		return err
	}

	var logf func(string, ...interface{})
	if !quiet {
		logf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stdout, format+"\n", args...)
		}
	}

	p := pipeline.New(dev, pipeline.Options{
		Input:          cfg.Input,
		Output:         cfg.Output,
		Angle:          cfg.Angle,
		Interp:         interp,
		TightBounds:    cfg.TightBounds,
		PatternWidth:   cfg.PatternWidth,
		PatternHeight:  cfg.PatternHeight,
		PreviewPath:    cfg.Preview,
		PreviewMaxEdge: cfg.PreviewMaxEdge,
		Logf:           logf,
	})
	_, err = p.Run(context.Background())
	return err
}
