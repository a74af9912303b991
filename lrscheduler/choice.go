package lrscheduler

import (
	"fmt"
	"slices"

	"github.com/tsawler/go-autotune/configspace"
)

// ChoiceParam is the hyperparameter selecting which component is active
const ChoiceParam = "__choice__"

// defaultComponent is preferred as the default choice whenever it is available
const defaultComponent = "ReduceLROnPlateau"

// Choice is the set of scheduler components a pipeline can pick from
type Choice struct {
	order     []string
	factories map[string]Factory
}

// NewChoice returns a Choice with every built-in scheduler registered
func NewChoice() *Choice {
	c := &Choice{factories: make(map[string]Factory)}
	for _, f := range []Factory{
		ReduceLROnPlateauFactory(),
		StepLRFactory(),
		ExponentialLRFactory(),
		CosineAnnealingLRFactory(),
		NoSchedulerFactory(),
	} {
		if err := c.Register(f); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds a component under its short name
func (c *Choice) Register(f Factory) error {
	name := f.Properties.ShortName
	if name == "" {
		return fmt.Errorf("component short name cannot be empty")
	}
	if f.SearchSpace == nil || f.New == nil {
		return fmt.Errorf("component %s needs both a search space and a constructor", name)
	}
	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("component %s is already registered", name)
	}
	c.factories[name] = f
	c.order = append(c.order, name)
	return nil
}

// Names returns registered short names in registration order
func (c *Choice) Names() []string { return slices.Clone(c.order) }

// Properties returns the metadata of every registered component
func (c *Choice) Properties() []Properties {
	out := make([]Properties, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.factories[name].Properties)
	}
	return out
}

// Available filters registered components by include/exclude lists.
// At most one of the two may be given.
func (c *Choice) Available(include, exclude []string) ([]string, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("include and exclude cannot be used together")
	}
	for _, name := range include {
		if _, ok := c.factories[name]; !ok {
			return nil, fmt.Errorf("included component %q is not registered", name)
		}
	}

	var out []string
	for _, name := range c.order {
		if len(include) > 0 && !slices.Contains(include, name) {
			continue
		}
		if slices.Contains(exclude, name) {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scheduler components left after filtering")
	}
	return out, nil
}

// SearchSpace combines the spaces of the available components under a
// ChoiceParam categorical. Each component's hyperparameters are prefixed with
// its short name and only active when it is chosen.
func (c *Choice) SearchSpace(props DatasetProperties, include, exclude []string) (*configspace.ConfigurationSpace, error) {
	available, err := c.Available(include, exclude)
	if err != nil {
		return nil, err
	}

	def := available[0]
	if slices.Contains(available, defaultComponent) {
		def = defaultComponent
	}

	choice, err := configspace.NewCategorical(ChoiceParam, available, def)
	if err != nil {
		return nil, err
	}
	cs := configspace.New()
	if err := cs.Add(choice); err != nil {
		return nil, err
	}
	for _, name := range available {
		sub := c.factories[name].SearchSpace(props)
		if err := cs.AddSpace(name, sub, ChoiceParam, name); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return cs, nil
}

// FromConfiguration builds the component selected by cfg[ChoiceParam]
func (c *Choice) FromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	name, err := cfg.String(ChoiceParam)
	if err != nil {
		return nil, err
	}
	return c.New(name, cfg.Sub(name), opts...)
}

// New builds the named component from its unprefixed configuration
func (c *Choice) New(name string, cfg configspace.Configuration, opts ...Option) (Component, error) {
	f, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scheduler component %q", configspace.ErrInvalidConfiguration, name)
	}
	return f.New(cfg, opts...)
}

// ComponentSearchSpace returns the unprefixed space of a single component
func (c *Choice) ComponentSearchSpace(name string, props DatasetProperties) (*configspace.ConfigurationSpace, error) {
	f, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown scheduler component %q", name)
	}
	return f.SearchSpace(props), nil
}
