package configspace

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// Kind identifies the domain type of a hyperparameter
type Kind string

const (
	KindCategorical    Kind = "categorical"
	KindUniformInteger Kind = "uniform_int"
	KindUniformFloat   Kind = "uniform_float"
)

// Hyperparameter is a single named, bounded search dimension
type Hyperparameter interface {
	Name() string
	Kind() Kind
	Default() any
	// Contains reports whether v lies in the domain. Numeric values are
	// coerced so YAML-decoded ints and floats are accepted interchangeably.
	Contains(v any) bool
	Sample(rng *rand.Rand) any

	describe() map[string]any
	withName(name string) Hyperparameter
}

// Categorical is a choice over a fixed, ordered set of strings
type Categorical struct {
	name         string
	Choices      []string
	DefaultValue string
}

// NewCategorical creates a categorical hyperparameter.
// The default is the first choice unless defaultValue is given.
func NewCategorical(name string, choices []string, defaultValue ...string) (*Categorical, error) {
	if name == "" {
		return nil, fmt.Errorf("hyperparameter name cannot be empty")
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("categorical %q needs at least one choice", name)
	}
	for i, c := range choices {
		if slices.Index(choices, c) != i {
			return nil, fmt.Errorf("categorical %q has duplicate choice %q", name, c)
		}
	}

	def := choices[0]
	if len(defaultValue) > 0 {
		def = defaultValue[0]
		if !slices.Contains(choices, def) {
			return nil, fmt.Errorf("default %q of categorical %q is not a valid choice", def, name)
		}
	}

	return &Categorical{
		name:         name,
		Choices:      slices.Clone(choices),
		DefaultValue: def,
	}, nil
}

func (c *Categorical) Name() string { return c.name }
func (c *Categorical) Kind() Kind   { return KindCategorical }
func (c *Categorical) Default() any { return c.DefaultValue }

func (c *Categorical) Contains(v any) bool {
	s, ok := v.(string)
	return ok && slices.Contains(c.Choices, s)
}

func (c *Categorical) Sample(rng *rand.Rand) any {
	return c.Choices[rng.IntN(len(c.Choices))]
}

func (c *Categorical) describe() map[string]any {
	choices := make([]any, len(c.Choices))
	for i, ch := range c.Choices {
		choices[i] = ch
	}
	return map[string]any{
		"name":    c.name,
		"type":    string(KindCategorical),
		"choices": choices,
		"default": c.DefaultValue,
	}
}

func (c *Categorical) withName(name string) Hyperparameter {
	cp := *c
	cp.name = name
	cp.Choices = slices.Clone(c.Choices)
	return &cp
}

// UniformInteger is an integer range [Lower, Upper], both ends inclusive
type UniformInteger struct {
	name         string
	Lower        int
	Upper        int
	DefaultValue int
}

// NewUniformInteger creates an integer hyperparameter
func NewUniformInteger(name string, lower, upper, defaultValue int) (*UniformInteger, error) {
	if name == "" {
		return nil, fmt.Errorf("hyperparameter name cannot be empty")
	}
	if lower > upper {
		return nil, fmt.Errorf("integer %q: lower bound %d exceeds upper bound %d", name, lower, upper)
	}
	if defaultValue < lower || defaultValue > upper {
		return nil, fmt.Errorf("integer %q: default %d outside [%d, %d]", name, defaultValue, lower, upper)
	}
	return &UniformInteger{
		name:         name,
		Lower:        lower,
		Upper:        upper,
		DefaultValue: defaultValue,
	}, nil
}

func (u *UniformInteger) Name() string { return u.name }
func (u *UniformInteger) Kind() Kind   { return KindUniformInteger }
func (u *UniformInteger) Default() any { return u.DefaultValue }

func (u *UniformInteger) Contains(v any) bool {
	i, ok := toInt(v)
	return ok && i >= u.Lower && i <= u.Upper
}

func (u *UniformInteger) Sample(rng *rand.Rand) any {
	return u.Lower + rng.IntN(u.Upper-u.Lower+1)
}

func (u *UniformInteger) describe() map[string]any {
	return map[string]any{
		"name":    u.name,
		"type":    string(KindUniformInteger),
		"lower":   u.Lower,
		"upper":   u.Upper,
		"default": u.DefaultValue,
	}
}

func (u *UniformInteger) withName(name string) Hyperparameter {
	cp := *u
	cp.name = name
	return &cp
}

// UniformFloat is a continuous range [Lower, Upper], optionally sampled on a log scale
type UniformFloat struct {
	name         string
	Lower        float64
	Upper        float64
	DefaultValue float64
	Log          bool
}

// NewUniformFloat creates a continuous hyperparameter sampled uniformly
func NewUniformFloat(name string, lower, upper, defaultValue float64) (*UniformFloat, error) {
	return newUniformFloat(name, lower, upper, defaultValue, false)
}

// NewLogUniformFloat creates a continuous hyperparameter sampled uniformly in log space
func NewLogUniformFloat(name string, lower, upper, defaultValue float64) (*UniformFloat, error) {
	return newUniformFloat(name, lower, upper, defaultValue, true)
}

func newUniformFloat(name string, lower, upper, defaultValue float64, log bool) (*UniformFloat, error) {
	if name == "" {
		return nil, fmt.Errorf("hyperparameter name cannot be empty")
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper {
		return nil, fmt.Errorf("float %q: invalid bounds [%v, %v]", name, lower, upper)
	}
	if log && lower <= 0 {
		return nil, fmt.Errorf("float %q: log scale requires a positive lower bound, got %v", name, lower)
	}
	if defaultValue < lower || defaultValue > upper {
		return nil, fmt.Errorf("float %q: default %v outside [%v, %v]", name, defaultValue, lower, upper)
	}
	return &UniformFloat{
		name:         name,
		Lower:        lower,
		Upper:        upper,
		DefaultValue: defaultValue,
		Log:          log,
	}, nil
}

func (u *UniformFloat) Name() string { return u.name }
func (u *UniformFloat) Kind() Kind   { return KindUniformFloat }
func (u *UniformFloat) Default() any { return u.DefaultValue }

func (u *UniformFloat) Contains(v any) bool {
	f, ok := toFloat(v)
	return ok && f >= u.Lower && f <= u.Upper
}

func (u *UniformFloat) Sample(rng *rand.Rand) any {
	r := rng.Float64()
	if u.Log {
		lo, hi := math.Log(u.Lower), math.Log(u.Upper)
		return clamp(math.Exp(lo+r*(hi-lo)), u.Lower, u.Upper)
	}
	return clamp(u.Lower+r*(u.Upper-u.Lower), u.Lower, u.Upper)
}

func (u *UniformFloat) describe() map[string]any {
	return map[string]any{
		"name":    u.name,
		"type":    string(KindUniformFloat),
		"lower":   u.Lower,
		"upper":   u.Upper,
		"default": u.DefaultValue,
		"log":     u.Log,
	}
}

func (u *UniformFloat) withName(name string) Hyperparameter {
	cp := *u
	cp.name = name
	return &cp
}

// exp/log round trips can land a hair outside the bounds
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case int32:
		return int(x), true
	case uint64:
		if x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case float64:
		// -float64(math.MinInt) is 2^63 on 64-bit platforms, one past MaxInt
		lim := float64(math.MinInt)
		if x != math.Trunc(x) || math.IsNaN(x) || x < lim || x >= -lim {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}
