package lrscheduler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

var exponentialLRProperties = Properties{
	ShortName: "ExponentialLR",
	Name:      "ExponentialLR",
}

// ExponentialLR multiplies the learning rate by gamma every epoch
type ExponentialLR struct {
	gamma float64

	rng    *rand.Rand
	logger zerolog.Logger
	state  fitState
}

// NewExponentialLR captures an exponential decay configuration
func NewExponentialLR(gamma float64, opts ...Option) *ExponentialLR {
	o := newOptions(opts)
	return &ExponentialLR{
		gamma:  gamma,
		rng:    o.rng,
		logger: o.logger,
		state:  unfit{},
	}
}

// ExponentialLRFromConfiguration builds the component from a sampled configuration
func ExponentialLRFromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	if err := validated(exponentialLRProperties, ExponentialLRSearchSpace(nil), cfg); err != nil {
		return nil, err
	}
	gamma, err := cfg.Float("gamma")
	if err != nil {
		return nil, err
	}
	return NewExponentialLR(gamma, opts...), nil
}

// Fit binds an exponential schedule to params.Optimizer
func (e *ExponentialLR) Fit(x Matrix, y []float64, params FitParams) (Component, error) {
	opt, err := requireOptimizer(exponentialLRProperties, params)
	if err != nil {
		return nil, err
	}
	handle, err := training.NewBoundScheduler(opt, training.NewExponentialLRScheduler(e.gamma))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", exponentialLRProperties.ShortName, err)
	}
	e.state = fitted{handle: handle}

	e.logger.Debug().
		Str("scheduler", exponentialLRProperties.ShortName).
		Float64("gamma", e.gamma).
		Msg("attached learning rate scheduler")
	return e, nil
}

func (e *ExponentialLR) Transform(x Matrix) Matrix { return x }
func (e *ExponentialLR) Properties() Properties    { return exponentialLRProperties }

func (e *ExponentialLR) SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return ExponentialLRSearchSpace(props)
}

func (e *ExponentialLR) Scheduler() (training.LRScheduler, bool) { return e.state.scheduler() }

func (e *ExponentialLR) Gamma() float64   { return e.gamma }
func (e *ExponentialLR) Rand() *rand.Rand { return e.rng }

// ExponentialLRSearchSpace returns the tunable decay rate
func ExponentialLRSearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	cs := configspace.New()
	mustAdd(cs, configspace.Must(configspace.NewUniformFloat("gamma", 0.7, 0.9999, 0.9)))
	return cs
}

// ExponentialLRFactory registers the component with a Choice
func ExponentialLRFactory() Factory {
	return Factory{
		Properties:  exponentialLRProperties,
		SearchSpace: ExponentialLRSearchSpace,
		New:         ExponentialLRFromConfiguration,
	}
}
