package lrscheduler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

var noSchedulerProperties = Properties{
	ShortName: "NoScheduler",
	Name:      "No LR Scheduling",
}

// NoScheduler keeps the optimizer's learning rate constant
type NoScheduler struct {
	rng    *rand.Rand
	logger zerolog.Logger
	state  fitState
}

// NewNoScheduler returns a component that leaves the learning rate alone
func NewNoScheduler(opts ...Option) *NoScheduler {
	o := newOptions(opts)
	return &NoScheduler{rng: o.rng, logger: o.logger, state: unfit{}}
}

// NoSchedulerFromConfiguration accepts only the empty configuration
func NoSchedulerFromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	if err := validated(noSchedulerProperties, NoSchedulerSearchSpace(nil), cfg); err != nil {
		return nil, err
	}
	return NewNoScheduler(opts...), nil
}

func (n *NoScheduler) Fit(x Matrix, y []float64, params FitParams) (Component, error) {
	opt, err := requireOptimizer(noSchedulerProperties, params)
	if err != nil {
		return nil, err
	}
	handle, err := training.NewBoundScheduler(opt, &training.NoOpScheduler{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", noSchedulerProperties.ShortName, err)
	}
	n.state = fitted{handle: handle}
	n.logger.Debug().Str("scheduler", noSchedulerProperties.ShortName).Msg("attached learning rate scheduler")
	return n, nil
}

func (n *NoScheduler) Transform(x Matrix) Matrix { return x }
func (n *NoScheduler) Properties() Properties    { return noSchedulerProperties }

func (n *NoScheduler) SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return NoSchedulerSearchSpace(props)
}

func (n *NoScheduler) Scheduler() (training.LRScheduler, bool) { return n.state.scheduler() }

func (n *NoScheduler) Rand() *rand.Rand { return n.rng }

// NoSchedulerSearchSpace is empty
func NoSchedulerSearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return configspace.New()
}

// NoSchedulerFactory registers the component with a Choice
func NoSchedulerFactory() Factory {
	return Factory{
		Properties:  noSchedulerProperties,
		SearchSpace: NoSchedulerSearchSpace,
		New:         NoSchedulerFromConfiguration,
	}
}
