package optim

import (
	"math"
)

// Adam implements the Adam optimizer (Adaptive Moment Estimation).
//
// Update rule:
//
//	m_t = β₁ * m_{t-1} + (1 - β₁) * g_t
//	v_t = β₂ * v_{t-1} + (1 - β₂) * g_t²
//	m̂_t = m_t / (1 - β₁^t)
//	v̂_t = v_t / (1 - β₂^t)
//	θ_t = θ_{t-1} - α * m̂_t / (√v̂_t + ε)
type Adam struct {
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
	t     int // Timestep for bias correction

	biasCorrection1 float32
	biasCorrection2 float32
}

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
	}
}

// StateBuffers returns 2: first and second moment estimates.
func (a *Adam) StateBuffers() int {
	return 2
}

// BeginStep advances the timestep and recomputes bias corrections.
func (a *Adam) BeginStep() {
	a.t++
	a.biasCorrection1 = float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	a.biasCorrection2 = float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))
}

// Update applies one Adam step.
func (a *Adam) Update(values, grad []float32, state [][]float32) {
	m, v := state[0], state[1]
	for i, g := range grad {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g

		mHat := m[i] / a.biasCorrection1
		vHat := v[i] / a.biasCorrection2
		values[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
	}
}

// LR returns the current learning rate.
func (a *Adam) LR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// Timestep returns the number of steps taken.
func (a *Adam) Timestep() int {
	return a.t
}

var _ Optimizer = (*Adam)(nil)
