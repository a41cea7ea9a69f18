package nn

import (
	"fmt"
	"io"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Sequential is a container block that chains multiple blocks together.
//
// Each block's output becomes the next block's input:
//
//	block := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewPrelu(),
//	    nn.NewLinear(128, 10),
//	)
//
//	outputs, err := block.Forward(inputs)
type Sequential struct {
	blocks []Block
}

// NewSequential creates a new Sequential container.
func NewSequential(blocks ...Block) *Sequential {
	return &Sequential{blocks: blocks}
}

// Forward applies all blocks in sequence.
func (s *Sequential) Forward(inputs *tensor.NDList) (*tensor.NDList, error) {
	_, out, err := s.forward(inputs)
	return out, err
}

// forward returns the input of every block along with the final output.
func (s *Sequential) forward(inputs *tensor.NDList) ([]*tensor.NDList, *tensor.NDList, error) {
	activations := make([]*tensor.NDList, 0, len(s.blocks))
	output := inputs
	for i, block := range s.blocks {
		activations = append(activations, output)
		next, err := block.Forward(output)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		output = next
	}
	return activations, output, nil
}

// Backward recomputes the forward pass to recover intermediate inputs, then
// runs the backward pass of every block in reverse order. Every block must
// implement Backwarder.
func (s *Sequential) Backward(inputs, gradOutputs *tensor.NDList) (*tensor.NDList, error) {
	for i, block := range s.blocks {
		if _, ok := block.(Backwarder); !ok {
			return nil, errdefs.Configuration("nn", "block %d (%T) does not support backward", i, block)
		}
	}

	activations, _, err := s.forward(inputs)
	if err != nil {
		return nil, err
	}

	grad := gradOutputs
	for i := len(s.blocks) - 1; i >= 0; i-- {
		grad, err = s.blocks[i].(Backwarder).Backward(activations[i], grad)
		if err != nil {
			return nil, fmt.Errorf("block %d backward: %w", i, err)
		}
	}
	return grad, nil
}

// Parameters returns all trainable parameters from all blocks.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, block := range s.blocks {
		params = append(params, block.Parameters()...)
	}
	return params
}

// Add appends a block to the sequence.
func (s *Sequential) Add(block Block) {
	s.blocks = append(s.blocks, block)
}

// Len returns the number of blocks in the sequence.
func (s *Sequential) Len() int {
	return len(s.blocks)
}

// Block returns the block at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Block(index int) Block {
	if index < 0 || index >= len(s.blocks) {
		panic("Sequential.Block: index out of bounds")
	}
	return s.blocks[index]
}

// SaveParameters writes the parameters of every block in order. Blocks
// without parameters are skipped; blocks with parameters must implement
// ParameterStore.
func (s *Sequential) SaveParameters(w io.Writer) error {
	for i, block := range s.blocks {
		store, err := storeOf(i, block)
		if err != nil {
			return err
		}
		if store == nil {
			continue
		}
		if err := store.SaveParameters(w); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// LoadParameters reads parameters written by SaveParameters.
func (s *Sequential) LoadParameters(m *tensor.Manager, r io.Reader) error {
	for i, block := range s.blocks {
		store, err := storeOf(i, block)
		if err != nil {
			return err
		}
		if store == nil {
			continue
		}
		if err := store.LoadParameters(m, r); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

func storeOf(i int, block Block) (ParameterStore, error) {
	store, ok := block.(ParameterStore)
	if ok {
		return store, nil
	}
	if len(block.Parameters()) == 0 {
		return nil, nil
	}
	return nil, errdefs.Configuration("nn", "block %d (%T) cannot store its parameters", i, block)
}

var (
	_ Block          = (*Sequential)(nil)
	_ Backwarder     = (*Sequential)(nil)
	_ ParameterStore = (*Sequential)(nil)
)
