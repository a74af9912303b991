package lrscheduler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/training"
)

var reduceLROnPlateauProperties = Properties{
	ShortName: "ReduceLROnPlateau",
	Name:      "Reduce LR On Plateau",
}

// ReduceLROnPlateau reduces the learning rate when a monitored metric has
// stopped improving. In "min" mode the LR drops once the metric stops
// decreasing, in "max" mode once it stops increasing. After more than
// patience epochs without improvement the LR is multiplied by factor.
type ReduceLROnPlateau struct {
	mode     string
	factor   float64
	patience int

	rng    *rand.Rand
	logger zerolog.Logger
	state  fitState
}

// NewReduceLROnPlateau captures a configuration. Values are not range checked
// here; they come from the bounded search space.
func NewReduceLROnPlateau(mode string, factor float64, patience int, opts ...Option) *ReduceLROnPlateau {
	o := newOptions(opts)
	return &ReduceLROnPlateau{
		mode:     mode,
		factor:   factor,
		patience: patience,
		rng:      o.rng,
		logger:   o.logger,
		state:    unfit{},
	}
}

// ReduceLROnPlateauFromConfiguration builds the component from a sampled configuration
func ReduceLROnPlateauFromConfiguration(cfg configspace.Configuration, opts ...Option) (Component, error) {
	if err := validated(reduceLROnPlateauProperties, ReduceLROnPlateauSearchSpace(nil), cfg); err != nil {
		return nil, err
	}
	mode, err := cfg.String("mode")
	if err != nil {
		return nil, err
	}
	factor, err := cfg.Float("factor")
	if err != nil {
		return nil, err
	}
	patience, err := cfg.Int("patience")
	if err != nil {
		return nil, err
	}
	return NewReduceLROnPlateau(mode, factor, patience, opts...), nil
}

// Fit builds a plateau scheduler around params.Optimizer
func (r *ReduceLROnPlateau) Fit(x Matrix, y []float64, params FitParams) (Component, error) {
	opt, err := requireOptimizer(reduceLROnPlateauProperties, params)
	if err != nil {
		return nil, err
	}

	handle, err := training.NewReduceLROnPlateauScheduler(opt, r.mode, r.factor, r.patience)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reduceLROnPlateauProperties.ShortName, err)
	}
	r.state = fitted{handle: handle}

	r.logger.Debug().
		Str("scheduler", reduceLROnPlateauProperties.ShortName).
		Str("mode", r.mode).
		Float64("factor", r.factor).
		Int("patience", r.patience).
		Float64("lr", opt.GetLR()).
		Msg("attached learning rate scheduler")

	return r, nil
}

// Transform returns x unchanged
func (r *ReduceLROnPlateau) Transform(x Matrix) Matrix { return x }

func (r *ReduceLROnPlateau) Properties() Properties { return reduceLROnPlateauProperties }

func (r *ReduceLROnPlateau) SearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	return ReduceLROnPlateauSearchSpace(props)
}

func (r *ReduceLROnPlateau) Scheduler() (training.LRScheduler, bool) {
	return r.state.scheduler()
}

// Plateau returns the attached scheduler with its concrete type so the
// training loop can feed it metrics.
func (r *ReduceLROnPlateau) Plateau() (*training.ReduceLROnPlateauScheduler, bool) {
	f, ok := r.state.(fitted)
	if !ok {
		return nil, false
	}
	p, ok := f.handle.(*training.ReduceLROnPlateauScheduler)
	return p, ok
}

// Mode, Factor and Patience expose the captured configuration
func (r *ReduceLROnPlateau) Mode() string     { return r.mode }
func (r *ReduceLROnPlateau) Factor() float64  { return r.factor }
func (r *ReduceLROnPlateau) Patience() int    { return r.patience }
func (r *ReduceLROnPlateau) Rand() *rand.Rand { return r.rng }

// ReduceLROnPlateauSearchSpace returns the tunable parameters; props is unused
func ReduceLROnPlateauSearchSpace(props DatasetProperties) *configspace.ConfigurationSpace {
	cs := configspace.New()
	mustAdd(cs,
		configspace.Must(configspace.NewCategorical("mode", []string{"min", "max"})),
		configspace.Must(configspace.NewUniformInteger("patience", 5, 20, 10)),
		configspace.Must(configspace.NewUniformFloat("factor", 0.01, 0.9, 0.1)),
	)
	return cs
}

// ReduceLROnPlateauFactory registers the component with a Choice
func ReduceLROnPlateauFactory() Factory {
	return Factory{
		Properties:  reduceLROnPlateauProperties,
		SearchSpace: ReduceLROnPlateauSearchSpace,
		New:         ReduceLROnPlateauFromConfiguration,
	}
}
