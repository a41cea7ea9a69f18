// Package training runs inference and training steps of a block under
// scoped buffer ownership.
//
// A Trainer owns a sub-manager of its model's manager. Every Predict opens
// two short-lived contexts below it, one for input conversion and one for
// output conversion, and closes both on every exit path.
//
// Example:
//
//	model := training.NewModel("mlp", block, tensor.CPUDevice())
//	defer model.Close()
//
//	trainer, err := training.NewTrainer(model, translator, training.Config{
//	    Controller: ctrl,
//	    Metrics:    metrics.New(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer trainer.Close()
//
//	outputs, err := trainer.Predict(inputs)
package training

import (
	"github.com/born-ml/ndtrain/internal/nn"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Model binds a block to the manager that owns its parameters.
type Model struct {
	Name    string
	Block   nn.Block
	Manager *tensor.Manager
}

// NewModel creates a model with a fresh root manager on device.
func NewModel(name string, block nn.Block, device tensor.Device) *Model {
	return &Model{
		Name:    name,
		Block:   block,
		Manager: tensor.NewManager(device),
	}
}

// Initialize allocates every parameter that is not allocated yet.
func (m *Model) Initialize(seed uint64) error {
	return nn.Initialize(m.Block, m.Manager, seed)
}

// Close releases the parameters and every trainer created for the model.
func (m *Model) Close() error {
	return m.Manager.Close()
}
