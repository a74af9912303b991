package lrscheduler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

var stepLRProperties = Properties{
	ShortName: "StepLR",
	Name:      "StepLR",
}

// StepLR decays the learning rate by gamma every stepSize epochs
type StepLR struct {
	stepSize int
	gamma    float64

	rng    *rand.Rand
	logger zerolog.Logger
	state  fitState
}

// NewStepLR captures a step decay configuration
func NewStepLR(stepSize int, gamma float64, opts ...Option) *StepLR {
	o := newOptions(opts)
	return &StepLR{
		stepSize: stepSize,
		gamma:    gamma,
		rng:      o.rng,
		logger:   o.logger,
		state:    unfit{},
	}
}

// StepLRFromConfiguration builds the component from a sampled configuration
func StepLRFromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	if err := validated(stepLRProperties, StepLRSearchSpace(nil), cfg); err != nil {
		return nil, err
	}
	stepSize, err := cfg.Int("step_size")
	if err != nil {
		return nil, err
	}
	gamma, err := cfg.Float("gamma")
	if err != nil {
		return nil, err
	}
	return NewStepLR(stepSize, gamma, opts...), nil
}

// Fit binds a step schedule to params.Optimizer
func (s *StepLR) Fit(x Matrix, y []float64, params FitParams) (Component, error) {
	opt, err := requireOptimizer(stepLRProperties, params)
	if err != nil {
		return nil, err
	}
	handle, err := training.NewBoundScheduler(opt, training.NewStepLRScheduler(s.stepSize, s.gamma))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stepLRProperties.ShortName, err)
	}
	s.state = fitted{handle: handle}

	s.logger.Debug().
		Str("scheduler", stepLRProperties.ShortName).
		Int("step_size", s.stepSize).
		Float64("gamma", s.gamma).
		Msg("attached learning rate scheduler")
	return s, nil
}

func (s *StepLR) Transform(x Matrix) Matrix { return x }
func (s *StepLR) Properties() Properties    { return stepLRProperties }

func (s *StepLR) SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return StepLRSearchSpace(props)
}

func (s *StepLR) Scheduler() (training.LRScheduler, bool) { return s.state.scheduler() }

// StepSize and Gamma expose the captured configuration
func (s *StepLR) StepSize() int    { return s.stepSize }
func (s *StepLR) Gamma() float64   { return s.gamma }
func (s *StepLR) Rand() *rand.Rand { return s.rng }

// StepLRSearchSpace returns the tunable parameters
func StepLRSearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	cs := configspace.New()
	mustAdd(cs,
		configspace.Must(configspace.NewUniformInteger("step_size", 1, 10, 5)),
		configspace.Must(configspace.NewUniformFloat("gamma", 0.001, 0.9, 0.1)),
	)
	return cs
}

// StepLRFactory registers the component with a Choice
func StepLRFactory() Factory {
	return Factory{
		Properties:  stepLRProperties,
		SearchSpace: StepLRSearchSpace,
		New:         StepLRFromConfiguration,
	}
}
