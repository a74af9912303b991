package configspace

import (
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Configuration is one concrete assignment of values to hyperparameter names
type Configuration map[string]any

// String returns a categorical value
func (c Configuration) String(name string) (string, error) {
	v, ok := c[name]
	if !ok {
		return "", fmt.Errorf("%w: %q is not set", ErrInvalidConfiguration, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, not a string", ErrInvalidConfiguration, name, v)
	}
	return s, nil
}

// Float returns a numeric value as float64
func (c Configuration) Float(name string) (float64, error) {
	v, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not set", ErrInvalidConfiguration, name)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q is %T, not a number", ErrInvalidConfiguration, name, v)
	}
	return f, nil
}

// Int returns an integral value
func (c Configuration) Int(name string) (int, error) {
	v, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not set", ErrInvalidConfiguration, name)
	}
	i, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q is %v (%T), not an integer", ErrInvalidConfiguration, name, v, v)
	}
	return i, nil
}

// Sub returns the entries named "prefix:<name>" with the prefix stripped
func (c Configuration) Sub(prefix string) Configuration {
	p := prefix + ":"
	out := make(Configuration)
	for k, v := range c {
		if rest, ok := strings.CutPrefix(k, p); ok {
			out[rest] = v
		}
	}
	return out
}

// ToYAML encodes the configuration with keys in sorted order
func (c Configuration) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(map[string]any(c))
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return data, nil
}

// ParseConfiguration decodes a YAML (or JSON, which is valid YAML) mapping
func ParseConfiguration(data []byte) (Configuration, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	cfg := make(Configuration, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case string, int, int64, uint64, float64, bool:
			cfg[k] = v
		default:
			return nil, fmt.Errorf("%w: %q has unsupported value type %T", ErrInvalidConfiguration, k, v)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads a configuration file from disk
func LoadConfiguration(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	cfg, err := ParseConfiguration(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
