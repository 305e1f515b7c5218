// Command pattern is the self-contained variant of the rotation demo: it
// always synthesizes the checkerboard test pattern, rotates it through a
// backend, and writes the result as PGM. No input file is involved.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/gpuimage/rotate/backends"
	"github.com/gpuimage/rotate/pipeline"
)

func main() {
	var (
		width   int
		height  int
		angle   float64
		output  string
		backend string
	)
	flag.IntVar(&width, "width", 512, "Pattern width in pixels")
	flag.IntVar(&height, "height", 512, "Pattern height in pixels")
	flag.Float64Var(&angle, "angle", 45, "Rotation angle in degrees")
	flag.StringVar(&output, "output", "pattern_rotated.pgm", "Output PGM path")
	flag.StringVar(&backend, "backend", "cpu", "Rotation backend: cpu or opencv")
	flag.Parse()

	err := run(width, height, angle, output, backend)
	if errors.Is(err, pipeline.ErrCapabilityUnmet) {
		fmt.Println("device does not meet the minimum capability; nothing to do")
		return
	}
	if err != nil {
		log.Fatalf("pattern: %v", err)
	}
}

func run(width, height int, angle float64, output, backend string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected failure: %v", r)
		}
	}()

	dev, err := backends.New(backend, nil)
	if err != nil {
		return err
	}
	defer dev.Close()

	p := pipeline.New(dev, pipeline.Options{
		Output:        output,
		Angle:         angle,
		Interp:        backends.InterpNearest,
		PatternWidth:  width,
		PatternHeight: height,
		Logf: func(format string, args ...interface{}) {
			fmt.Printf(format+"\n", args...)
		},
	})
	_, err = p.Run(context.Background())
	return err
}
