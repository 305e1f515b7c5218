package backends

import (
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Options is a marker interface for provider-specific configuration.
type Options interface {
	isOptions()
}

// New constructs a provider by name, decoding raw into that provider's
// option struct. An empty name selects the pure-Go provider.
func New(name string, raw map[string]interface{}) (Device, error) {
	switch strings.ToLower(name) {
	case "", cpuDeviceName:
		var opts CPUOptions
		if err := decodeOptions(raw, &opts); err != nil {
			return nil, err
		}
		return NewCPUDevice(opts), nil
	case opencvDeviceName:
		var opts OpenCVOptions
		if err := decodeOptions(raw, &opts); err != nil {
			return nil, err
		}
		return NewOpenCVDevice(opts), nil
	default:
		return nil, errors.Errorf("backends: unknown backend %q", name)
	}
}

// decodeOptions maps loosely-typed config values onto an option struct.
func decodeOptions(raw map[string]interface{}, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "backends: build options decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.Wrap(err, "backends: decode options")
	}
	return nil
}

// parseRuntimeVersion extracts major.minor from a runtime version string
// such as "4.10.0". Unparseable strings report as version 0.0.
func parseRuntimeVersion(v string) (int, int) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if len(parts) == 0 {
		return 0, 0
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0
	}
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}
