package optim

import (
	"context"
	"fmt"
	"sync"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/logging"
	"github.com/born-ml/ndtrain/internal/nn"
	"github.com/born-ml/ndtrain/internal/parallel"
	"github.com/born-ml/ndtrain/internal/tensor"
	"go.uber.org/zap"
)

// Controller applies an optimizer to a fixed parameter set.
//
// Optimizer state buffers are allocated lazily in a manager owned by the
// controller, on the first device. Close releases them.
type Controller struct {
	params    []*nn.Parameter
	optimizer Optimizer
	devices   []tensor.Device
	workers   parallel.Config
	log       *zap.Logger

	mu     sync.Mutex
	state  *tensor.Manager
	slots  map[*nn.Parameter][]*tensor.Handle
	steps  int
	closed bool
}

// NewController creates a controller for params. An empty device list
// selects the CPU.
func NewController(params []*nn.Parameter, optimizer Optimizer, devices []tensor.Device) (*Controller, error) {
	if optimizer == nil {
		return nil, errdefs.Configuration("optim", "the optimizer must be set")
	}
	if len(devices) == 0 {
		devices = []tensor.Device{tensor.CPUDevice()}
	}

	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = 1

	return &Controller{
		params:    params,
		optimizer: optimizer,
		devices:   devices,
		workers:   cfg,
		log:       logging.Named("optim"),
		state:     tensor.NewManager(devices[0]),
		slots:     make(map[*nn.Parameter][]*tensor.Handle, len(params)),
	}, nil
}

// Optimizer returns the update rule.
func (c *Controller) Optimizer() Optimizer {
	return c.optimizer
}

// Devices returns the devices the controller was configured with.
func (c *Controller) Devices() []tensor.Device {
	return append([]tensor.Device(nil), c.devices...)
}

// Parameters returns the controlled parameters.
func (c *Controller) Parameters() []*nn.Parameter {
	return append([]*nn.Parameter(nil), c.params...)
}

// Steps returns the number of completed steps.
func (c *Controller) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

// Step applies one update to every parameter that carries a gradient, then
// zeroes those gradients. Parameters are updated concurrently.
func (c *Controller) Step() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errdefs.UseAfterFree("controller", c.state.ID(), "step")
	}

	type update struct {
		param  *nn.Parameter
		values []float32
		grad   []float32
		state  [][]float32
	}

	updates := make([]update, 0, len(c.params))
	for _, p := range c.params {
		grad, ok, err := p.GradFloat32s()
		if err != nil {
			return fmt.Errorf("gradient of %s: %w", p.Name(), err)
		}
		if !ok {
			continue
		}
		values, err := p.Float32s()
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name(), err)
		}
		state, err := c.stateFor(p)
		if err != nil {
			return err
		}
		updates = append(updates, update{param: p, values: values, grad: grad, state: state})
	}

	c.optimizer.BeginStep()
	err := parallel.For(context.Background(), len(updates), func(i int) error {
		u := updates[i]
		c.optimizer.Update(u.values, u.grad, u.state)
		return u.param.ZeroGrad()
	}, c.workers)
	if err != nil {
		return err
	}

	c.steps++
	c.log.Debug("optimizer step",
		zap.Int("step", c.steps),
		zap.Int("updated", len(updates)),
		zap.Float32("lr", c.optimizer.LR()))
	return nil
}

// stateFor returns the state buffers of p, allocating them on first use.
// c.mu must be held.
func (c *Controller) stateFor(p *nn.Parameter) ([][]float32, error) {
	n := c.optimizer.StateBuffers()
	if n == 0 {
		return nil, nil
	}

	handles, ok := c.slots[p]
	if !ok {
		handles = make([]*tensor.Handle, n)
		for i := range handles {
			h, err := c.state.Create(p.Shape(), tensor.Float32)
			if err != nil {
				return nil, fmt.Errorf("allocate optimizer state for %s: %w", p.Name(), err)
			}
			h.SetName(fmt.Sprintf("%s.state%d", p.Name(), i))
			handles[i] = h
		}
		c.slots[p] = handles
	}

	state := make([][]float32, n)
	for i, h := range handles {
		values, err := h.Float32s()
		if err != nil {
			return nil, err
		}
		state[i] = values
	}
	return state, nil
}

// Close releases every optimizer state buffer. It is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.slots = nil
	return c.state.Close()
}
