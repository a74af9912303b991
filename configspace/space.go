// Package configspace describes hyperparameter search spaces: bounded
// categorical, integer and continuous dimensions, equality conditions between
// them, and sampling/validation of concrete configurations.
package configspace

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// ErrInvalidConfiguration is wrapped by every validation failure
var ErrInvalidConfiguration = errors.New("invalid configuration")

// EqualsCondition makes Child active only when Parent is active and set to Value
type EqualsCondition struct {
	Child  string
	Parent string
	Value  any
}

// ConfigurationSpace is an ordered set of hyperparameters plus activation conditions
type ConfigurationSpace struct {
	order      []string
	params     map[string]Hyperparameter
	conditions map[string]EqualsCondition // keyed by child
}

// New creates an empty configuration space
func New() *ConfigurationSpace {
	return &ConfigurationSpace{
		params:     make(map[string]Hyperparameter),
		conditions: make(map[string]EqualsCondition),
	}
}

// Must panics if err is non-nil. It is meant for statically known search spaces.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Add registers hyperparameters in order. Names must be unique.
func (cs *ConfigurationSpace) Add(hps ...Hyperparameter) error {
	for _, hp := range hps {
		if hp == nil {
			return fmt.Errorf("cannot add nil hyperparameter")
		}
		if _, exists := cs.params[hp.Name()]; exists {
			return fmt.Errorf("hyperparameter %q already exists", hp.Name())
		}
		cs.params[hp.Name()] = hp
		cs.order = append(cs.order, hp.Name())
	}
	return nil
}

// AddCondition registers an activation condition. The parent must have been
// added before the child so that sampling in insertion order sees it first.
func (cs *ConfigurationSpace) AddCondition(c EqualsCondition) error {
	childIdx := slices.Index(cs.order, c.Child)
	parentIdx := slices.Index(cs.order, c.Parent)
	if childIdx < 0 {
		return fmt.Errorf("condition child %q is not in the space", c.Child)
	}
	if parentIdx < 0 {
		return fmt.Errorf("condition parent %q is not in the space", c.Parent)
	}
	if parentIdx >= childIdx {
		return fmt.Errorf("condition parent %q must precede child %q", c.Parent, c.Child)
	}
	if _, exists := cs.conditions[c.Child]; exists {
		return fmt.Errorf("hyperparameter %q already has a condition", c.Child)
	}
	if !cs.params[c.Parent].Contains(c.Value) {
		return fmt.Errorf("condition value %v is not in the domain of %q", c.Value, c.Parent)
	}
	cs.conditions[c.Child] = c
	return nil
}

// AddSpace merges other into cs with every name prefixed "prefix:".
// Top-level hyperparameters of other become conditional on parent == value;
// pass an empty parent to merge unconditionally.
func (cs *ConfigurationSpace) AddSpace(prefix string, other *ConfigurationSpace, parent string, value any) error {
	rename := func(name string) string { return prefix + ":" + name }

	for _, name := range other.order {
		if err := cs.Add(other.params[name].withName(rename(name))); err != nil {
			return err
		}
	}
	for _, name := range other.order {
		if c, ok := other.conditions[name]; ok {
			err := cs.AddCondition(EqualsCondition{Child: rename(c.Child), Parent: rename(c.Parent), Value: c.Value})
			if err != nil {
				return err
			}
			continue
		}
		if parent == "" {
			continue
		}
		if err := cs.AddCondition(EqualsCondition{Child: rename(name), Parent: parent, Value: value}); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the named hyperparameter
func (cs *ConfigurationSpace) Get(name string) (Hyperparameter, bool) {
	hp, ok := cs.params[name]
	return hp, ok
}

// Names returns hyperparameter names in insertion order
func (cs *ConfigurationSpace) Names() []string {
	return slices.Clone(cs.order)
}

// Len returns the number of hyperparameters
func (cs *ConfigurationSpace) Len() int { return len(cs.order) }

// Conditions returns the registered conditions in child insertion order
func (cs *ConfigurationSpace) Conditions() []EqualsCondition {
	var out []EqualsCondition
	for _, name := range cs.order {
		if c, ok := cs.conditions[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// isActive expects cfg to already hold values for every predecessor of name
func (cs *ConfigurationSpace) isActive(name string, cfg Configuration) bool {
	c, ok := cs.conditions[name]
	if !ok {
		return true
	}
	v, present := cfg[c.Parent]
	return present && equalValues(v, c.Value)
}

// DefaultConfiguration returns every active hyperparameter at its default
func (cs *ConfigurationSpace) DefaultConfiguration() Configuration {
	cfg := make(Configuration, len(cs.order))
	for _, name := range cs.order {
		if cs.isActive(name, cfg) {
			cfg[name] = cs.params[name].Default()
		}
	}
	return cfg
}

// Sample draws one configuration. A nil rng uses a randomly seeded source.
func (cs *ConfigurationSpace) Sample(rng *rand.Rand) Configuration {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	cfg := make(Configuration, len(cs.order))
	for _, name := range cs.order {
		if cs.isActive(name, cfg) {
			cfg[name] = cs.params[name].Sample(rng)
		}
	}
	return cfg
}

// SampleN draws n configurations from the same source
func (cs *ConfigurationSpace) SampleN(rng *rand.Rand, n int) []Configuration {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	out := make([]Configuration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cs.Sample(rng))
	}
	return out
}

// Validate checks that cfg sets exactly the active hyperparameters, each within its domain
func (cs *ConfigurationSpace) Validate(cfg Configuration) error {
	for key := range cfg {
		if _, ok := cs.params[key]; !ok {
			return fmt.Errorf("%w: unknown hyperparameter %q", ErrInvalidConfiguration, key)
		}
	}

	for _, name := range cs.order {
		v, present := cfg[name]
		active := cs.isActive(name, cfg)
		switch {
		case active && !present:
			return fmt.Errorf("%w: active hyperparameter %q is missing", ErrInvalidConfiguration, name)
		case !active && present:
			return fmt.Errorf("%w: inactive hyperparameter %q is set", ErrInvalidConfiguration, name)
		case active && !cs.params[name].Contains(v):
			return fmt.Errorf("%w: value %v of %q is out of range", ErrInvalidConfiguration, v, name)
		}
	}
	return nil
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}
