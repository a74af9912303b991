package training

import (
	"math"
	"testing"
)

func TestSGDOptimizer(t *testing.T) {
	t.Run("Basic SGD update", func(t *testing.T) {
		param := &Parameter{
			Data: []float64{1.0, 2.0, 3.0},
			Grad: []float64{0.1, 0.2, 0.3},
		}

		optimizer := NewSGD([]*Parameter{param}, 0.1, 0.0, 0.0, 0.0, false)
		if err := optimizer.Step(); err != nil {
			t.Fatalf("SGD step failed: %v", err)
		}

		// new_param = old_param - lr * grad
		expectedData := []float64{0.99, 1.98, 2.97}
		for i, expected := range expectedData {
			if math.Abs(param.Data[i]-expected) > 1e-9 {
				t.Errorf("Parameter %d: expected %.6f, got %.6f", i, expected, param.Data[i])
			}
		}
	})

	t.Run("SGD with momentum", func(t *testing.T) {
		param := &Parameter{Data: []float64{1.0, 2.0}}
		optimizer := NewSGD([]*Parameter{param}, 0.1, 0.9, 0.0, 0.0, false)

		param.Grad = []float64{0.1, 0.2}
		if err := optimizer.Step(); err != nil {
			t.Fatalf("First SGD step failed: %v", err)
		}

		param.Grad = []float64{0.2, 0.1}
		if err := optimizer.Step(); err != nil {
			t.Fatalf("Second SGD step failed: %v", err)
		}

		// v1 = g1; p1 = p0 - lr*v1
		// v2 = 0.9*v1 + g2; p2 = p1 - lr*v2
		expected := []float64{
			1.0 - 0.1*0.1 - 0.1*(0.9*0.1+0.2),
			2.0 - 0.1*0.2 - 0.1*(0.9*0.2+0.1),
		}
		for i := range expected {
			if math.Abs(param.Data[i]-expected[i]) > 1e-9 {
				t.Errorf("Parameter %d: expected %.6f, got %.6f", i, expected[i], param.Data[i])
			}
		}
	})

	t.Run("SGD with weight decay", func(t *testing.T) {
		param := &Parameter{Data: []float64{1.0}, Grad: []float64{0.0}}
		optimizer := NewSGD([]*Parameter{param}, 0.1, 0.0, 0.5, 0.0, false)

		if err := optimizer.Step(); err != nil {
			t.Fatalf("SGD step failed: %v", err)
		}
		// grad = 0 + 0.5*1.0 -> 1.0 - 0.1*0.5
		if math.Abs(param.Data[0]-0.95) > 1e-9 {
			t.Errorf("Expected 0.95, got %f", param.Data[0])
		}
	})

	t.Run("Mismatched gradient is rejected", func(t *testing.T) {
		param := &Parameter{Data: []float64{1.0, 2.0}, Grad: []float64{0.1}}
		optimizer := NewSGD([]*Parameter{param}, 0.1, 0.0, 0.0, 0.0, false)
		if err := optimizer.Step(); err == nil {
			t.Error("Expected error for mismatched gradient length")
		}
	})

	t.Run("Learning rate get/set", func(t *testing.T) {
		optimizer := NewSGD(nil, 0.1, 0.0, 0.0, 0.0, false)
		if optimizer.GetLR() != 0.1 {
			t.Errorf("Expected LR 0.1, got %f", optimizer.GetLR())
		}
		optimizer.SetLR(0.05)
		if optimizer.GetLR() != 0.05 {
			t.Errorf("Expected LR 0.05, got %f", optimizer.GetLR())
		}
	})
}

func TestAdamOptimizer(t *testing.T) {
	t.Run("First step moves by lr", func(t *testing.T) {
		param := &Parameter{
			Data: []float64{1.0, -1.0},
			Grad: []float64{0.5, -2.0},
		}
		optimizer := NewAdam([]*Parameter{param}, 0.01, 0.9, 0.999, 1e-8, 0.0)

		if err := optimizer.Step(); err != nil {
			t.Fatalf("Adam step failed: %v", err)
		}

		// After bias correction m_hat = g and v_hat = g^2, so the step is lr*sign(g)
		expected := []float64{0.99, -0.99}
		for i := range expected {
			if math.Abs(param.Data[i]-expected[i]) > 1e-6 {
				t.Errorf("Parameter %d: expected %.6f, got %.6f", i, expected[i], param.Data[i])
			}
		}
	})

	t.Run("ZeroGrad clears gradients", func(t *testing.T) {
		param := &Parameter{Data: []float64{1.0}, Grad: []float64{3.0}}
		optimizer := NewAdam([]*Parameter{param}, 0.001, 0.9, 0.999, 1e-8, 0.0)
		optimizer.ZeroGrad()
		if param.Grad[0] != 0 {
			t.Errorf("Expected zeroed gradient, got %f", param.Grad[0])
		}
	})

	t.Run("Parameters without gradients are skipped", func(t *testing.T) {
		param := &Parameter{Data: []float64{1.0}}
		optimizer := NewAdam([]*Parameter{param}, 0.001, 0.9, 0.999, 1e-8, 0.0)
		if err := optimizer.Step(); err != nil {
			t.Fatalf("Adam step failed: %v", err)
		}
		if param.Data[0] != 1.0 {
			t.Errorf("Expected parameter unchanged, got %f", param.Data[0])
		}
	})

	t.Run("Learning rate get/set", func(t *testing.T) {
		var optimizer Optimizer = NewAdam(nil, 0.001, 0.9, 0.999, 1e-8, 0.0)
		optimizer.SetLR(0.0005)
		if optimizer.GetLR() != 0.0005 {
			t.Errorf("Expected LR 0.0005, got %f", optimizer.GetLR())
		}
	})
}

func TestOptimizerTraining(t *testing.T) {
	// Minimise (w - 3)^2 with both optimizers
	optimizers := map[string]func(p *Parameter) Optimizer{
		"SGD":  func(p *Parameter) Optimizer { return NewSGD([]*Parameter{p}, 0.1, 0.9, 0.0, 0.0, true) },
		"Adam": func(p *Parameter) Optimizer { return NewAdam([]*Parameter{p}, 0.1, 0.9, 0.999, 1e-8, 0.0) },
	}

	for name, build := range optimizers {
		t.Run(name, func(t *testing.T) {
			param := NewParameter([]float64{0.0})
			optimizer := build(param)

			for i := 0; i < 500; i++ {
				optimizer.ZeroGrad()
				param.Grad[0] = 2 * (param.Data[0] - 3)
				if err := optimizer.Step(); err != nil {
					t.Fatalf("Step %d failed: %v", i, err)
				}
			}

			if math.Abs(param.Data[0]-3) > 5e-2 {
				t.Errorf("Expected convergence to 3, got %f", param.Data[0])
			}
		})
	}
}
