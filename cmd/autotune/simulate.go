package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/go-autotune/configspace"
	"github.com/tsawler/go-autotune/lrscheduler"
	"github.com/tsawler/go-autotune/training"
)

var (
	configPath        string
	simulateComponent string
	baseLR            float64
	metricSteps       []float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Fit a scheduler to an SGD optimizer and replay a metric sequence",
	Long: `Loads a configuration (YAML), builds the selected scheduler component,
attaches it to a fresh SGD optimizer and steps it once per metric value,
logging the learning rate after every epoch.

A configuration containing __choice__ selects the component itself; otherwise
--component names it and the keys are the component's own hyperparameters.
Without --config the component's default configuration is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		component, err := buildComponent()
		if err != nil {
			return err
		}

		lrs, err := simulate(component, baseLR, metricSteps)
		if err != nil {
			return err
		}
		for i, lr := range lrs {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%g\t%g\n", i+1, metricSteps[i], lr)
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&configPath, "config", "", "configuration file (YAML or JSON)")
	simulateCmd.Flags().StringVar(&simulateComponent, "component", "", "component short name when the configuration has no __choice__")
	simulateCmd.Flags().Float64Var(&baseLR, "lr", 0.1, "initial learning rate")
	simulateCmd.Flags().Float64SliceVar(&metricSteps, "metrics", nil, "per-epoch metric values")
}

func buildComponent() (lrscheduler.Component, error) {
	choice := lrscheduler.NewChoice()
	opts := []lrscheduler.Option{lrscheduler.WithLogger(logger)}

	if configPath == "" {
		name := simulateComponent
		if name == "" {
			name = "ReduceLROnPlateau"
		}
		space, err := choice.ComponentSearchSpace(name, nil)
		if err != nil {
			return nil, err
		}
		return choice.New(name, space.DefaultConfiguration(), opts...)
	}

	cfg, err := configspace.LoadConfiguration(configPath)
	if err != nil {
		return nil, err
	}
	if _, ok := cfg[lrscheduler.ChoiceParam]; ok {
		return choice.FromConfiguration(cfg, opts...)
	}
	if simulateComponent == "" {
		return nil, fmt.Errorf("%s has no %s key; pass --component", configPath, lrscheduler.ChoiceParam)
	}
	return choice.New(simulateComponent, cfg, opts...)
}

// simulate fits component to a one-parameter SGD optimizer and returns the LR after each epoch
func simulate(component lrscheduler.Component, lr float64, metrics []float64) ([]float64, error) {
	opt := training.NewSGD([]*training.Parameter{training.NewParameter([]float64{0})}, lr, 0, 0, 0, false)
	if _, err := component.Fit(nil, nil, lrscheduler.NewFitParams(opt)); err != nil {
		return nil, err
	}
	handle, _ := component.Scheduler()

	lrs := make([]float64, 0, len(metrics))
	for epoch, metric := range metrics {
		switch h := handle.(type) {
		case *training.ReduceLROnPlateauScheduler:
			h.Step(metric)
		case *training.BoundScheduler:
			h.Step()
		default:
			return nil, fmt.Errorf("scheduler %s cannot be stepped", handle.GetName())
		}
		lrs = append(lrs, opt.GetLR())
		logger.Info().
			Str("scheduler", handle.GetName()).
			Int("epoch", epoch+1).
			Float64("metric", metric).
			Float64("lr", opt.GetLR()).
			Msg("epoch")
	}
	return lrs, nil
}
