// Package config - run configuration for the rotation demos.
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config holds everything a pipeline run needs. It is loaded from a YAML
// file and individual fields may be overridden by CLI flags.
type Config struct {
	// Input is the source PGM path; empty synthesizes the test pattern.
	Input string `yaml:"input"`
	// Output is the destination PGM path.
	Output string `yaml:"output"`
	// Angle is the rotation in degrees. Positive angles rotate the
	// positive x axis toward the positive y axis.
	Angle float64 `yaml:"angle"`
	// Backend selects the rotation provider ("cpu", "opencv").
	Backend string `yaml:"backend"`
	// Interpolation selects the sampling mode ("nearest", "bilinear").
	Interpolation string `yaml:"interpolation"`
	// TightBounds sizes the canvas from the rotated corners instead of
	// the 1.5x heuristic.
	TightBounds bool `yaml:"tight_bounds"`
	// Preview, when set, writes a PNG preview to this path.
	Preview string `yaml:"preview"`
	// PreviewMaxEdge bounds the preview's longest edge.
	PreviewMaxEdge int `yaml:"preview_max_edge"`
	// PatternWidth and PatternHeight size the fallback checkerboard.
	PatternWidth  int `yaml:"pattern_width"`
	PatternHeight int `yaml:"pattern_height"`
	// Options carries backend-specific settings, decoded by the selected
	// provider.
	Options map[string]interface{} `yaml:"options"`
}

// Defaults mirror the original demo: a 45 degree nearest-neighbor rotation
// of a 512x512 source on the portable backend.
func Defaults() Config {
	return Config{
		Output:         "rotated.pgm",
		Angle:          45,
		Backend:        "cpu",
		Interpolation:  "nearest",
		PreviewMaxEdge: 512,
		PatternWidth:   512,
		PatternHeight:  512,
	}
}

// Load reads a YAML config file over the defaults. A missing file is an
// error; use Defaults directly when no file is configured.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Options = normalizeMap(cfg.Options)
	return cfg, nil
}

// normalizeMap rewrites the map[interface{}]interface{} values yaml.v2
// produces for nested mappings into map[string]interface{} so they can be
// decoded into option structs.
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[fmt.Sprintf("%v", k)] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		for i, inner := range val {
			val[i] = normalizeValue(inner)
		}
		return val
	default:
		return v
	}
}
