// Package lrscheduler provides the learning-rate scheduler components an
// AutoML pipeline chooses between. Each component holds a sampled
// configuration, attaches the matching scheduler from package training to an
// optimizer during Fit, and reports its own hyperparameter search space.
package lrscheduler

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

// ErrMissingOptimizer is returned by Fit when no optimizer is supplied
var ErrMissingOptimizer = errors.New("cannot attach scheduler without an optimizer")

// Matrix is a row-major feature matrix
type Matrix = [][]float64

// DatasetProperties describes the dataset a pipeline is being built for.
// Scheduler search spaces do not depend on it.
type DatasetProperties map[string]any

// Properties identifies a component among its siblings for reporting
type Properties struct {
	ShortName string `json:"shortname"`
	Name      string `json:"name"`
}

// FitParams carries the collaborators a component needs during Fit
type FitParams struct {
	Optimizer training.Optimizer
}

// NewFitParams returns fit parameters bound to opt
func NewFitParams(opt training.Optimizer) FitParams {
	return FitParams{Optimizer: opt}
}

// Component is the capability set shared by every scheduler strategy
type Component interface {
	// Fit attaches the scheduler to params.Optimizer and returns the receiver
	Fit(x Matrix, y []float64, params FitParams) (Component, error)
	// Transform is the identity; schedulers do not alter features
	Transform(x Matrix) Matrix
	Properties() Properties
	SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace
	// Scheduler returns the attached scheduler and whether Fit has succeeded
	Scheduler() (training.LRScheduler, bool)
}

// Factory builds a component from a sampled configuration
type Factory struct {
	Properties  Properties
	SearchSpace func(props DatasetProperties) *configspace.ConfigurationSpace
	New         func(cfg configspace.Configuration, opts ...Option) (Component, error)
}

// Option configures a component
type Option func(*options)

type options struct {
	rng    *rand.Rand
	logger zerolog.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRandomState sets the randomness source carried by the component
func WithRandomState(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithLogger sets the logger used to report attachment
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// fitState is either unfit{} or fitted{handle}; a component moves from the
// first to the second exactly once.
type fitState interface {
	scheduler() (training.LRScheduler, bool)
}

type unfit struct{}

func (unfit) scheduler() (training.LRScheduler, bool) { return nil, false }

type fitted struct {
	handle training.LRScheduler
}

func (f fitted) scheduler() (training.LRScheduler, bool) { return f.handle, true }

func requireOptimizer(props Properties, params FitParams) (training.Optimizer, error) {
	if params.Optimizer == nil {
		return nil, fmt.Errorf("%s: %w", props.ShortName, ErrMissingOptimizer)
	}
	return params.Optimizer, nil
}

// validated checks cfg against space before a factory reads it
func validated(props Properties, space *configspace.ConfigurationSpace, cfg configspace.Configuration) error {
	if err := space.Validate(cfg); err != nil {
		return fmt.Errorf("%s: %w", props.ShortName, err)
	}
	return nil
}

func mustAdd(cs *configspace.ConfigurationSpace, hps ...configspace.Hyperparameter) {
	if err := cs.Add(hps...); err != nil {
		panic(err)
	}
}
