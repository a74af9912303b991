package training

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// LRScheduler defines the interface for learning rate scheduling strategies
// Epoch-driven schedules are pure functions of (epoch, step, baseLR)
type LRScheduler interface {
	// GetLR returns the learning rate for the current epoch/step
	// This is a pure function - no state modifications
	GetLR(epoch int, step int, baseLR float64) float64

	// GetName returns the scheduler name for logging
	GetName() string
}

// ErrNilOptimizer is returned when a scheduler is bound to a nil optimizer
var ErrNilOptimizer = errors.New("scheduler requires a non-nil optimizer")

// StepLRScheduler reduces learning rate by a factor every stepSize epochs
type StepLRScheduler struct {
	StepSize int     // Epochs between LR reductions
	Gamma    float64 // Multiplicative factor of LR decay
}

// NewStepLRScheduler creates a step learning rate scheduler
func NewStepLRScheduler(stepSize int, gamma float64) *StepLRScheduler {
	if stepSize <= 0 {
		stepSize = 30 // Default: reduce every 30 epochs
	}
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.1 // Default: reduce by 10x
	}
	return &StepLRScheduler{
		StepSize: stepSize,
		Gamma:    gamma,
	}
}

func (s *StepLRScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	// Calculate how many times to apply gamma
	times := epoch / s.StepSize
	return baseLR * math.Pow(s.Gamma, float64(times))
}

func (s *StepLRScheduler) GetName() string {
	return "StepLR"
}

// ExponentialLRScheduler decays learning rate exponentially
type ExponentialLRScheduler struct {
	Gamma float64 // Multiplicative factor of LR decay per epoch
}

// NewExponentialLRScheduler creates an exponential learning rate scheduler
func NewExponentialLRScheduler(gamma float64) *ExponentialLRScheduler {
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.95 // Default: 5% reduction per epoch
	}
	return &ExponentialLRScheduler{
		Gamma: gamma,
	}
}

func (s *ExponentialLRScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	return baseLR * math.Pow(s.Gamma, float64(epoch))
}

func (s *ExponentialLRScheduler) GetName() string {
	return "ExponentialLR"
}

// CosineAnnealingLRScheduler implements cosine annealing schedule
type CosineAnnealingLRScheduler struct {
	TMax   int     // Maximum number of epochs
	EtaMin float64 // Minimum learning rate
}

// NewCosineAnnealingLRScheduler creates a cosine annealing scheduler
func NewCosineAnnealingLRScheduler(tMax int, etaMin float64) *CosineAnnealingLRScheduler {
	if tMax <= 0 {
		tMax = 100 // Default: 100 epochs
	}
	if etaMin < 0 {
		etaMin = 0 // Default: anneal to 0
	}
	return &CosineAnnealingLRScheduler{
		TMax:   tMax,
		EtaMin: etaMin,
	}
}

func (s *CosineAnnealingLRScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	if epoch >= s.TMax {
		return s.EtaMin
	}

	// Cosine annealing formula
	return s.EtaMin + (baseLR-s.EtaMin)*(1+math.Cos(math.Pi*float64(epoch)/float64(s.TMax)))/2
}

func (s *CosineAnnealingLRScheduler) GetName() string {
	return "CosineAnnealingLR"
}

// NoOpScheduler maintains constant learning rate (default behavior)
type NoOpScheduler struct{}

func (s *NoOpScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	return baseLR
}

func (s *NoOpScheduler) GetName() string {
	return "ConstantLR"
}

// BoundScheduler applies an epoch-driven schedule to an optimizer.
// The optimizer's learning rate at bind time is used as the base LR.
type BoundScheduler struct {
	schedule  LRScheduler
	optimizer Optimizer
	baseLR    float64
	epoch     int
}

// NewBoundScheduler attaches schedule to opt
func NewBoundScheduler(opt Optimizer, schedule LRScheduler) (*BoundScheduler, error) {
	if opt == nil {
		return nil, ErrNilOptimizer
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule cannot be nil")
	}
	return &BoundScheduler{
		schedule:  schedule,
		optimizer: opt,
		baseLR:    opt.GetLR(),
	}, nil
}

// Step advances one epoch and writes the scheduled LR into the optimizer
func (b *BoundScheduler) Step() float64 {
	b.epoch++
	lr := b.schedule.GetLR(b.epoch, 0, b.baseLR)
	b.optimizer.SetLR(lr)
	return lr
}

// Epoch returns the number of completed Step calls
func (b *BoundScheduler) Epoch() int { return b.epoch }

// Optimizer returns the optimizer the schedule writes to
func (b *BoundScheduler) Optimizer() Optimizer { return b.optimizer }

func (b *BoundScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	return b.schedule.GetLR(epoch, step, baseLR)
}

func (b *BoundScheduler) GetName() string {
	return b.schedule.GetName()
}

// PlateauMode selects whether the monitored metric should decrease or increase
type PlateauMode string

const (
	PlateauModeMin PlateauMode = "min"
	PlateauModeMax PlateauMode = "max"
)

// PlateauOption tunes the secondary knobs of ReduceLROnPlateauScheduler
type PlateauOption func(*ReduceLROnPlateauScheduler)

// WithThreshold sets the relative improvement threshold (default 1e-4)
func WithThreshold(threshold float64) PlateauOption {
	return func(s *ReduceLROnPlateauScheduler) { s.Threshold = threshold }
}

// WithCooldown sets the number of epochs to wait after a reduction before counting bad epochs
func WithCooldown(cooldown int) PlateauOption {
	return func(s *ReduceLROnPlateauScheduler) { s.Cooldown = cooldown }
}

// WithMinLR sets a lower bound on the learning rate
func WithMinLR(minLR float64) PlateauOption {
	return func(s *ReduceLROnPlateauScheduler) { s.MinLR = minLR }
}

// WithEps sets the minimal LR change; smaller reductions are ignored
func WithEps(eps float64) PlateauOption {
	return func(s *ReduceLROnPlateauScheduler) { s.Eps = eps }
}

// ReduceLROnPlateauScheduler reduces LR when a metric has stopped improving
// This scheduler requires state tracking, so it's bound to an optimizer
type ReduceLROnPlateauScheduler struct {
	Factor    float64     // Factor by which the learning rate will be reduced
	Patience  int         // Number of epochs with no improvement after which LR will be reduced
	Threshold float64     // Relative threshold for measuring the new optimum
	Mode      PlateauMode // One of "min" or "max"
	Cooldown  int
	MinLR     float64
	Eps       float64

	optimizer Optimizer

	mu              sync.Mutex
	bestMetric      float64
	badEpochs       int
	cooldownCounter int
	lastEpoch       int
	numReductions   int
}

// NewReduceLROnPlateauScheduler binds a plateau scheduler to opt.
// Unlike the epoch-driven schedules, invalid arguments are rejected rather than defaulted.
func NewReduceLROnPlateauScheduler(opt Optimizer, mode string, factor float64, patience int, opts ...PlateauOption) (*ReduceLROnPlateauScheduler, error) {
	if opt == nil {
		return nil, ErrNilOptimizer
	}
	if factor >= 1.0 {
		return nil, fmt.Errorf("factor should be < 1.0, got %v", factor)
	}
	if factor <= 0 || math.IsNaN(factor) {
		return nil, fmt.Errorf("factor should be > 0, got %v", factor)
	}
	if patience < 0 {
		return nil, fmt.Errorf("patience cannot be negative: %d", patience)
	}

	s := &ReduceLROnPlateauScheduler{
		Factor:    factor,
		Patience:  patience,
		Threshold: 1e-4,
		Mode:      PlateauMode(mode),
		Eps:       1e-8,
		optimizer: opt,
	}
	for _, o := range opts {
		o(s)
	}

	switch s.Mode {
	case PlateauModeMin:
		s.bestMetric = math.Inf(1)
	case PlateauModeMax:
		s.bestMetric = math.Inf(-1)
	default:
		return nil, fmt.Errorf("mode %q is unknown, expected \"min\" or \"max\"", mode)
	}
	if s.Threshold < 0 {
		return nil, fmt.Errorf("threshold cannot be negative: %v", s.Threshold)
	}
	if s.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown cannot be negative: %d", s.Cooldown)
	}

	return s, nil
}

func (s *ReduceLROnPlateauScheduler) isBetter(metric float64) bool {
	if s.Mode == PlateauModeMin {
		return metric < s.bestMetric*(1-s.Threshold)
	}
	return metric > s.bestMetric*(1+s.Threshold)
}

// Step records one epoch's metric and reduces the optimizer LR once more than
// Patience consecutive epochs have failed to improve on the best value.
// It returns the optimizer LR after the update.
func (s *ReduceLROnPlateauScheduler) Step(metric float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastEpoch++

	if s.isBetter(metric) {
		s.bestMetric = metric
		s.badEpochs = 0
	} else {
		s.badEpochs++
	}

	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		s.badEpochs = 0
	}

	if s.badEpochs > s.Patience {
		s.reduceLR()
		s.cooldownCounter = s.Cooldown
		s.badEpochs = 0
	}

	return s.optimizer.GetLR()
}

func (s *ReduceLROnPlateauScheduler) reduceLR() {
	oldLR := s.optimizer.GetLR()
	newLR := math.Max(oldLR*s.Factor, s.MinLR)
	if oldLR-newLR > s.Eps {
		s.optimizer.SetLR(newLR)
		s.numReductions++
	}
}

// BestMetric returns the best metric observed so far
func (s *ReduceLROnPlateauScheduler) BestMetric() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestMetric
}

// BadEpochs returns the current run of non-improving epochs
func (s *ReduceLROnPlateauScheduler) BadEpochs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badEpochs
}

// Reductions returns how many times the LR has been reduced
func (s *ReduceLROnPlateauScheduler) Reductions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numReductions
}

// Optimizer returns the optimizer this scheduler is bound to
func (s *ReduceLROnPlateauScheduler) Optimizer() Optimizer { return s.optimizer }

func (s *ReduceLROnPlateauScheduler) GetLR(epoch int, step int, baseLR float64) float64 {
	// The actual reduction happens in Step() based on metrics
	return s.optimizer.GetLR()
}

func (s *ReduceLROnPlateauScheduler) GetName() string {
	return "ReduceLROnPlateau"
}
