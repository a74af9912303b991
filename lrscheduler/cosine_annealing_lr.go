package lrscheduler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

var cosineAnnealingLRProperties = Properties{
	ShortName: "CosineAnnealingLR",
	Name:      "Cosine Annealing LR",
}

// CosineAnnealingLR anneals the learning rate towards zero over tMax epochs
type CosineAnnealingLR struct {
	tMax int

	rng    *rand.Rand
	logger zerolog.Logger
	state  fitState
}

// NewCosineAnnealingLR captures the annealing period in epochs
func NewCosineAnnealingLR(tMax int, opts ...Option) *CosineAnnealingLR {
	o := newOptions(opts)
	return &CosineAnnealingLR{
		tMax:   tMax,
		rng:    o.rng,
		logger: o.logger,
		state:  unfit{},
	}
}

// CosineAnnealingLRFromConfiguration builds the component from a sampled configuration
func CosineAnnealingLRFromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	if err := validated(cosineAnnealingLRProperties, CosineAnnealingLRSearchSpace(nil), cfg); err != nil {
		return nil, err
	}
	tMax, err := cfg.Int("T_max")
	if err != nil {
		return nil, err
	}
	return NewCosineAnnealingLR(tMax, opts...), nil
}

// Fit binds a cosine schedule with a zero floor to params.Optimizer
func (c *CosineAnnealingLR) Fit(x Matrix, y []float64, params FitParams) (Component, error) {
	opt, err := requireOptimizer(cosineAnnealingLRProperties, params)
	if err != nil {
		return nil, err
	}
	handle, err := training.NewBoundScheduler(opt, training.NewCosineAnnealingLRScheduler(c.tMax, 0))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cosineAnnealingLRProperties.ShortName, err)
	}
	c.state = fitted{handle: handle}

	c.logger.Debug().
		Str("scheduler", cosineAnnealingLRProperties.ShortName).
		Int("T_max", c.tMax).
		Msg("attached learning rate scheduler")
	return c, nil
}

func (c *CosineAnnealingLR) Transform(x Matrix) Matrix { return x }
func (c *CosineAnnealingLR) Properties() Properties    { return cosineAnnealingLRProperties }

func (c *CosineAnnealingLR) SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return CosineAnnealingLRSearchSpace(props)
}

func (c *CosineAnnealingLR) Scheduler() (training.LRScheduler, bool) { return c.state.scheduler() }

func (c *CosineAnnealingLR) TMax() int        { return c.tMax }
func (c *CosineAnnealingLR) Rand() *rand.Rand { return c.rng }

// CosineAnnealingLRSearchSpace returns the tunable annealing period
func CosineAnnealingLRSearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	cs := configspace.New()
	mustAdd(cs, configspace.Must(configspace.NewUniformInteger("T_max", 10, 500, 200)))
	return cs
}

// CosineAnnealingLRFactory registers the component with a Choice
func CosineAnnealingLRFactory() Factory {
	return Factory{
		Properties:  cosineAnnealingLRProperties,
		SearchSpace: CosineAnnealingLRSearchSpace,
		New:         CosineAnnealingLRFromConfiguration,
	}
}
