package nn

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Parameter represents a trainable buffer of a block.
//
// The value buffer is allocated by Initialize or LoadParameters in the
// model's manager. The gradient buffer is allocated next to it on the first
// backward pass.
//
// Example:
//
//	weight := nn.NewParameter("weight", tensor.Shape{10, 4}, nn.Xavier(4, 10))
//	_ = weight.Initialize(m, rng)
//	values, _ := weight.Float32s()
type Parameter struct {
	name  string
	shape tensor.Shape
	init  Init

	mu    sync.Mutex
	value *tensor.Handle
	grad  *tensor.Handle
}

// NewParameter creates an uninitialized float32 parameter.
func NewParameter(name string, shape tensor.Shape, init Init) *Parameter {
	if init == nil {
		init = Zeros()
	}
	return &Parameter{name: name, shape: shape.Clone(), init: init}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns the parameter shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape.Clone()
}

// IsInitialized reports whether the value buffer is allocated and alive.
func (p *Parameter) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value != nil && !p.value.IsReleased()
}

// Initialize allocates the value buffer in m and fills it.
func (p *Parameter) Initialize(m *tensor.Manager, rng *rand.Rand) error {
	h, err := m.Create(p.shape, tensor.Float32)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", p.name, err)
	}
	values, err := h.Float32s()
	if err != nil {
		return err
	}
	p.init(rng, values)
	h.SetName(p.name)

	p.mu.Lock()
	p.value = h
	p.grad = nil
	p.mu.Unlock()
	return nil
}

// Value returns the value buffer, or nil before initialization.
func (p *Parameter) Value() *tensor.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Grad returns the gradient buffer, or nil before the first backward pass.
func (p *Parameter) Grad() *tensor.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grad
}

// Float32s returns the parameter values.
func (p *Parameter) Float32s() ([]float32, error) {
	h := p.Value()
	if h == nil {
		return nil, errdefs.Configuration("nn", "parameter %s is not initialized", p.name)
	}
	return h.Float32s()
}

// GradFloat32s returns the gradient values. ok is false when no gradient has
// been accumulated.
func (p *Parameter) GradFloat32s() (values []float32, ok bool, err error) {
	h := p.Grad()
	if h == nil {
		return nil, false, nil
	}
	values, err = h.Float32s()
	return values, err == nil, err
}

// AccumulateGrad adds delta to the gradient buffer, allocating it in the
// value's manager on first use.
func (p *Parameter) AccumulateGrad(delta []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.value == nil {
		return errdefs.Configuration("nn", "parameter %s is not initialized", p.name)
	}
	if p.grad == nil || p.grad.IsReleased() {
		m := p.value.Manager()
		if m == nil {
			return errdefs.UseAfterFree("parameter", p.name, "accumulate gradient of")
		}
		h, err := m.Create(p.shape, tensor.Float32)
		if err != nil {
			return fmt.Errorf("allocate gradient of %s: %w", p.name, err)
		}
		h.SetName(p.name + ".grad")
		p.grad = h
	}

	grad, err := p.grad.Float32s()
	if err != nil {
		return err
	}
	if len(delta) != len(grad) {
		return errdefs.InvalidArgument("delta", len(delta), "gradient of %s has %d elements", p.name, len(grad))
	}
	for i, d := range delta {
		grad[i] += d
	}
	return nil
}

// ZeroGrad clears the gradient buffer. The buffer stays allocated.
func (p *Parameter) ZeroGrad() error {
	h := p.Grad()
	if h == nil {
		return nil
	}
	grad, err := h.Float32s()
	if err != nil {
		return err
	}
	clear(grad)
	return nil
}

// Save writes the parameter name, shape and values.
func (p *Parameter) Save(w io.Writer) error {
	values, err := p.Float32s()
	if err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint16(len(p.name))); err != nil {
		return fmt.Errorf("write name length: %w", err)
	}
	if _, err := io.WriteString(w, p.name); err != nil {
		return fmt.Errorf("write name: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(p.shape))); err != nil {
		return fmt.Errorf("write rank: %w", err)
	}
	for _, dim := range p.shape {
		if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
			return fmt.Errorf("write shape: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("write values of %s: %w", p.name, err)
	}
	return nil
}

// Load reads a parameter written by Save. The stored name and shape must
// match. The values are copied into the existing buffer when there is one,
// otherwise a new buffer is allocated in m.
func (p *Parameter) Load(m *tensor.Manager, r io.Reader) error {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return fmt.Errorf("read name length: %w", err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if string(name) != p.name {
		return errdefs.InvalidArgument("name", string(name), "expected parameter %s", p.name)
	}

	var rank uint8
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return fmt.Errorf("read rank: %w", err)
	}
	shape := make(tensor.Shape, rank)
	for i := range shape {
		var dim uint32
		if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
			return fmt.Errorf("read shape: %w", err)
		}
		shape[i] = int(dim)
	}
	if !shape.Equal(p.shape) {
		return errdefs.InvalidArgument("shape", shape, "parameter %s has shape %s", p.name, p.shape)
	}

	if !p.IsInitialized() {
		h, err := m.Create(p.shape, tensor.Float32)
		if err != nil {
			return fmt.Errorf("load %s: %w", p.name, err)
		}
		h.SetName(p.name)
		p.mu.Lock()
		p.value = h
		p.grad = nil
		p.mu.Unlock()
	}

	values, err := p.Float32s()
	if err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("read values of %s: %w", p.name, err)
	}
	return nil
}
