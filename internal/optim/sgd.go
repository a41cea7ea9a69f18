package optim

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	θ = θ - lr * ∇θ
//
// Update rule with momentum:
//
//	v = momentum * v + ∇θ
//	θ = θ - lr * v
type SGD struct {
	lr       float32
	momentum float32
}

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR, momentum: config.Momentum}
}

// StateBuffers returns 1 (velocity) with momentum, 0 without.
func (s *SGD) StateBuffers() int {
	if s.momentum == 0 {
		return 0
	}
	return 1
}

// BeginStep is a no-op for SGD.
func (s *SGD) BeginStep() {}

// Update applies one SGD step.
func (s *SGD) Update(values, grad []float32, state [][]float32) {
	if s.momentum == 0 {
		for i, g := range grad {
			values[i] -= s.lr * g
		}
		return
	}

	velocity := state[0]
	for i, g := range grad {
		velocity[i] = s.momentum*velocity[i] + g
		values[i] -= s.lr * velocity[i]
	}
}

// LR returns the current learning rate.
func (s *SGD) LR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float32 {
	return s.momentum
}

var _ Optimizer = (*SGD)(nil)
