// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: per-parameter update rule
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Controller: applies an optimizer to a parameter set and owns its state
//
// Example usage:
//
//	ctrl, err := optim.NewController(block.Parameters(), optim.NewAdam(optim.AdamConfig{
//	    LR: 0.001,
//	}), nil)
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Close()
//
//	// Training loop
//	for batch := range batches {
//	    // forward, loss, backward accumulate gradients
//	    if err := ctrl.Step(); err != nil {
//	        return err
//	    }
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update parameters in place from their gradients. State that
// must persist across steps (momentum, moment estimates) lives in buffers the
// Controller allocates and hands back on every update.
type Optimizer interface {
	// StateBuffers returns the number of per-parameter state buffers, each
	// with the parameter's shape.
	StateBuffers() int

	// BeginStep is called once per step, before any Update.
	BeginStep()

	// Update applies one step to values given grad. Update is called
	// concurrently for distinct parameters.
	Update(values, grad []float32, state [][]float32)

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate.
	SetLR(lr float32)
}
