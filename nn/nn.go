// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/ndtrain/internal/nn"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Block is the base interface for all compute-graph components.
type Block = nn.Block

// Backwarder is implemented by blocks that support a backward pass.
type Backwarder = nn.Backwarder

// Loss evaluates predictions against labels.
type Loss = nn.Loss

// ParameterStore is implemented by blocks that can persist their parameters.
type ParameterStore = nn.ParameterStore

// Parameter represents a trainable buffer of a block.
type Parameter = nn.Parameter

// Init fills a freshly allocated parameter buffer.
type Init = nn.Init

// NewParameter creates an uninitialized float32 parameter.
func NewParameter(name string, shape tensor.Shape, init Init) *Parameter {
	return nn.NewParameter(name, shape, init)
}

// Linear represents a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
//	err := nn.Initialize(layer, root, 42)
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Prelu is a parametric ReLU.
type Prelu = nn.Prelu

// NewPrelu creates a Prelu block with alpha initialized to 0.25.
func NewPrelu() *Prelu {
	return nn.NewPrelu()
}

// Sequential chains blocks.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
func NewSequential(blocks ...Block) *Sequential {
	return nn.NewSequential(blocks...)
}

// MSELoss computes Mean Squared Error loss.
type MSELoss = nn.MSELoss

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return nn.NewMSELoss()
}

// Initialize allocates and fills every uninitialized parameter of b in m.
func Initialize(b Block, m *tensor.Manager, seed uint64) error {
	return nn.Initialize(b, m, seed)
}

// ZeroGrad clears the gradients of every parameter of b.
func ZeroGrad(b Block) error {
	return nn.ZeroGrad(b)
}

// Xavier returns a Glorot uniform initializer.
func Xavier(fanIn, fanOut int) Init {
	return nn.Xavier(fanIn, fanOut)
}

// Zeros leaves the buffer zeroed.
func Zeros() Init {
	return nn.Zeros()
}

// Constant fills the buffer with v.
func Constant(v float32) Init {
	return nn.Constant(v)
}

// Normal fills the buffer from N(0, std²).
func Normal(std float64) Init {
	return nn.Normal(std)
}
