package training

import (
	"fmt"
	"math"
	"sync"
)

// Optimizer interface defines the methods that all optimizers must implement
type Optimizer interface {
	Step() error      // Updates model parameters based on gradients
	ZeroGrad()        // Resets gradients to zero for all parameters
	GetLR() float64   // Gets current learning rate
	SetLR(lr float64) // Sets learning rate
}

// Parameter is a flat trainable weight vector with its gradient.
// A nil Grad means the parameter is skipped by Step.
type Parameter struct {
	Data []float64
	Grad []float64
}

// NewParameter creates a parameter initialised from data with a zeroed gradient
func NewParameter(data []float64) *Parameter {
	return &Parameter{
		Data: data,
		Grad: make([]float64, len(data)),
	}
}

func (p *Parameter) validate() error {
	if p.Grad != nil && len(p.Grad) != len(p.Data) {
		return fmt.Errorf("gradient length %d does not match parameter length %d", len(p.Grad), len(p.Data))
	}
	return nil
}

func zeroGrad(parameters []*Parameter) {
	for _, p := range parameters {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// SGD implements Stochastic Gradient Descent optimizer
type SGD struct {
	parameters   []*Parameter
	learningRate float64
	momentum     float64
	weightDecay  float64
	dampening    float64
	nesterov     bool
	velocities   map[*Parameter][]float64
	mutex        sync.RWMutex
}

// NewSGD creates a new SGD optimizer
func NewSGD(parameters []*Parameter, lr float64, momentum float64, weightDecay float64, dampening float64, nesterov bool) *SGD {
	sgd := &SGD{
		parameters:   parameters,
		learningRate: lr,
		momentum:     momentum,
		weightDecay:  weightDecay,
		dampening:    dampening,
		nesterov:     nesterov,
		velocities:   make(map[*Parameter][]float64),
	}

	// Initialize velocity buffers for momentum
	if momentum > 0 {
		for _, param := range parameters {
			sgd.velocities[param] = make([]float64, len(param.Data))
		}
	}

	return sgd
}

// Step performs a single optimization step
func (sgd *SGD) Step() error {
	sgd.mutex.Lock()
	defer sgd.mutex.Unlock()

	for idx, param := range sgd.parameters {
		if param.Grad == nil {
			continue
		}
		if err := param.validate(); err != nil {
			return fmt.Errorf("parameter %d: %w", idx, err)
		}

		velocity := sgd.velocities[param]
		if sgd.momentum > 0 && velocity == nil {
			velocity = make([]float64, len(param.Data))
			sgd.velocities[param] = velocity
		}

		for i := range param.Data {
			grad := param.Grad[i]

			// grad = grad + weight_decay * param.data
			if sgd.weightDecay > 0 {
				grad += sgd.weightDecay * param.Data[i]
			}

			if sgd.momentum > 0 {
				// velocity = momentum * velocity + (1 - dampening) * grad
				velocity[i] = sgd.momentum*velocity[i] + (1.0-sgd.dampening)*grad
				if sgd.nesterov {
					grad += sgd.momentum * velocity[i]
				} else {
					grad = velocity[i]
				}
			}

			param.Data[i] -= sgd.learningRate * grad
		}
	}

	return nil
}

// ZeroGrad resets gradients to zero for all parameters
func (sgd *SGD) ZeroGrad() {
	zeroGrad(sgd.parameters)
}

// GetLR returns the current learning rate
func (sgd *SGD) GetLR() float64 {
	sgd.mutex.RLock()
	defer sgd.mutex.RUnlock()
	return sgd.learningRate
}

// SetLR sets the learning rate
func (sgd *SGD) SetLR(lr float64) {
	sgd.mutex.Lock()
	defer sgd.mutex.Unlock()
	sgd.learningRate = lr
}

// Adam implements the Adam optimizer
type Adam struct {
	parameters  []*Parameter
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	step        int64
	m           map[*Parameter][]float64 // First moment estimates
	v           map[*Parameter][]float64 // Second moment estimates
	mutex       sync.RWMutex
}

// NewAdam creates a new Adam optimizer
func NewAdam(parameters []*Parameter, lr, beta1, beta2, eps, weightDecay float64) *Adam {
	adam := &Adam{
		parameters:  parameters,
		lr:          lr,
		beta1:       beta1,
		beta2:       beta2,
		eps:         eps,
		weightDecay: weightDecay,
		m:           make(map[*Parameter][]float64),
		v:           make(map[*Parameter][]float64),
	}

	for _, param := range parameters {
		adam.m[param] = make([]float64, len(param.Data))
		adam.v[param] = make([]float64, len(param.Data))
	}

	return adam
}

// Step performs a single optimization step
func (adam *Adam) Step() error {
	adam.mutex.Lock()
	defer adam.mutex.Unlock()

	adam.step++

	// Bias correction factors
	bias1 := 1.0 - math.Pow(adam.beta1, float64(adam.step))
	bias2 := 1.0 - math.Pow(adam.beta2, float64(adam.step))

	for idx, param := range adam.parameters {
		if param.Grad == nil {
			continue
		}
		if err := param.validate(); err != nil {
			return fmt.Errorf("parameter %d: %w", idx, err)
		}

		m, v := adam.m[param], adam.v[param]
		if m == nil || v == nil {
			m = make([]float64, len(param.Data))
			v = make([]float64, len(param.Data))
			adam.m[param] = m
			adam.v[param] = v
		}

		for i := range param.Data {
			grad := param.Grad[i]
			if adam.weightDecay > 0 {
				grad += adam.weightDecay * param.Data[i]
			}

			m[i] = adam.beta1*m[i] + (1.0-adam.beta1)*grad
			v[i] = adam.beta2*v[i] + (1.0-adam.beta2)*grad*grad

			mHat := m[i] / bias1
			vHat := v[i] / bias2

			param.Data[i] -= adam.lr * mHat / (math.Sqrt(vHat) + adam.eps)
		}
	}

	return nil
}

// ZeroGrad resets gradients to zero for all parameters
func (adam *Adam) ZeroGrad() {
	zeroGrad(adam.parameters)
}

// GetLR returns the current learning rate
func (adam *Adam) GetLR() float64 {
	adam.mutex.RLock()
	defer adam.mutex.RUnlock()
	return adam.lr
}

// SetLR sets the learning rate
func (adam *Adam) SetLR(lr float64) {
	adam.mutex.Lock()
	defer adam.mutex.Unlock()
	adam.lr = lr
}
