// Package nn implements the compute-graph blocks used by the training engine.
//
// This package provides:
//   - Block interface: forward pass over NDLists
//   - Backwarder: optional backward pass that accumulates parameter gradients
//   - Parameter: named trainable buffer with an optional gradient buffer
//   - Linear, Prelu: reference blocks computed on the CPU
//   - Sequential: container for stacking blocks
//   - MSELoss: loss with gradient
//
// Blocks allocate their outputs in the manager of the head input, so a
// caller that runs a forward pass inside a scoped manager releases every
// intermediate buffer when that scope closes.
package nn

import (
	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Block is the base interface for all compute-graph components.
//
// Blocks can be composed to build larger graphs:
//
//	block := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewPrelu(),
//	    nn.NewLinear(128, 10),
//	)
type Block interface {
	// Forward computes the outputs of the block. Output buffers are owned by
	// the manager of inputs.Head().
	Forward(inputs *tensor.NDList) (*tensor.NDList, error)

	// Parameters returns all trainable parameters of this block, including
	// nested ones. Blocks without parameters return nil.
	Parameters() []*Parameter
}

// Backwarder is implemented by blocks that support a backward pass.
//
// Backward receives the inputs of the matching forward call and the gradient
// of the loss with respect to the outputs. It accumulates parameter gradients
// and returns the gradient with respect to the inputs.
type Backwarder interface {
	Backward(inputs, gradOutputs *tensor.NDList) (*tensor.NDList, error)
}

// Loss evaluates predictions against labels.
type Loss interface {
	// Evaluate returns the scalar loss and its gradient with respect to the
	// predictions. The gradient is owned by the manager of predictions.Head().
	Evaluate(labels, predictions *tensor.NDList) (float32, *tensor.NDList, error)
}

// Initialize allocates and fills every uninitialized parameter of b in m.
// The same seed always yields the same values.
func Initialize(b Block, m *tensor.Manager, seed uint64) error {
	rng := newRand(seed)
	for _, p := range b.Parameters() {
		if p.IsInitialized() {
			continue
		}
		if err := p.Initialize(m, rng); err != nil {
			return err
		}
	}
	return nil
}

// ZeroGrad clears the gradients of every parameter of b.
func ZeroGrad(b Block) error {
	for _, p := range b.Parameters() {
		if err := p.ZeroGrad(); err != nil {
			return err
		}
	}
	return nil
}

// headFloat32s returns the head handle of l and its float32 view. The head
// must be a 2-D buffer.
func headFloat32s(l *tensor.NDList, block string) (*tensor.Handle, []float32, error) {
	if l.Len() == 0 {
		return nil, nil, errdefs.InvalidArgument("inputs", nil, "%s expects at least one input", block)
	}
	h := l.Head()
	values, err := h.Float32s()
	if err != nil {
		return nil, nil, err
	}
	return h, values, nil
}

func rows2D(h *tensor.Handle, block string) (int, int, error) {
	shape := h.Shape()
	if len(shape) != 2 {
		return 0, 0, errdefs.InvalidArgument("inputs", shape, "%s expects 2-D input [batch, features]", block)
	}
	return shape[0], shape[1], nil
}
