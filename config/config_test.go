package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "", cfg.Input)
	assert.Equal(t, "rotated.pgm", cfg.Output)
	assert.Equal(t, 45.0, cfg.Angle)
	assert.Equal(t, "cpu", cfg.Backend)
	assert.Equal(t, "nearest", cfg.Interpolation)
	assert.False(t, cfg.TightBounds)
	assert.Equal(t, 512, cfg.PatternWidth)
	assert.Equal(t, 512, cfg.PatternHeight)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.yaml")
	data := `
input: data/lena_gray.pgm
output: data/lena_rotated.pgm
angle: 30
backend: opencv
interpolation: bilinear
tight_bounds: true
options:
  border_value: 7
  nested:
    key: value
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/lena_gray.pgm", cfg.Input)
	assert.Equal(t, "data/lena_rotated.pgm", cfg.Output)
	assert.Equal(t, 30.0, cfg.Angle)
	assert.Equal(t, "opencv", cfg.Backend)
	assert.Equal(t, "bilinear", cfg.Interpolation)
	assert.True(t, cfg.TightBounds)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, 512, cfg.PatternWidth)

	// Nested option maps are normalized to string keys so providers can
	// decode them.
	assert.Equal(t, 7, cfg.Options["border_value"])
	nested, ok := cfg.Options["nested"].(map[string]interface{})
	require.True(t, ok, "nested maps must have string keys, got %T", cfg.Options["nested"])
	assert.Equal(t, "value", nested["key"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("angle: [not a number"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
