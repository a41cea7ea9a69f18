package tensor

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/google/uuid"
)

// Manager is a node in the buffer ownership tree.
//
// A manager owns a set of handles and an ordered list of child managers.
// Close releases the whole subtree: children first (depth-first), then the
// handles owned directly, then the manager itself. Close is idempotent.
//
// Managers are safe for use from multiple goroutines, but closing a manager
// while another goroutine attaches to it or reads its handles is a caller bug.
//
// Example:
//
//	root := tensor.NewManager(tensor.CPUDevice())
//	defer root.Close()
//
//	step := root.NewSubManager()
//	x, _ := step.Create(tensor.Shape{32, 784}, tensor.Float32)
//	// ... use x ...
//	step.Close() // frees x
type Manager struct {
	id     uuid.UUID
	device Device
	parent *Manager // lookup only

	mu       sync.Mutex
	closing  bool
	closed   bool
	handles  map[*Handle]struct{}
	children []*Manager
}

// NewManager creates a root manager for device.
func NewManager(device Device) *Manager {
	m := newManager(nil, device)
	trackRoot(m)
	return m
}

func newManager(parent *Manager, device Device) *Manager {
	return &Manager{
		id:      uuid.New(),
		device:  device,
		parent:  parent,
		handles: make(map[*Handle]struct{}),
	}
}

// ID returns the manager's unique identifier.
func (m *Manager) ID() string {
	return m.id.String()
}

// Device returns the manager's default device.
func (m *Manager) Device() Device {
	return m.device
}

// Parent returns the parent manager, or nil for a root.
func (m *Manager) Parent() *Manager {
	return m.parent
}

// IsOpen reports whether the manager can still own buffers.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && !m.closing
}

// NumHandles returns the number of handles owned directly.
func (m *Manager) NumHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// NumChildren returns the number of open child managers.
func (m *Manager) NumChildren() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.children)
}

// NewSubManager creates an open, empty child on the same device.
//
// A child requested from a closed manager is returned already closed, so
// work scheduled against a torn-down tree fails on its first Attach instead
// of leaking buffers.
func (m *Manager) NewSubManager() *Manager {
	return m.NewSubManagerOn(m.device)
}

// NewSubManagerOn is NewSubManager with a different default device.
func (m *Manager) NewSubManagerOn(device Device) *Manager {
	child := newManager(m, device)

	m.mu.Lock()
	if m.closed || m.closing {
		child.closed = true
	} else {
		m.children = append(m.children, child)
	}
	m.mu.Unlock()

	return child
}

// Create allocates a native buffer and attaches it to m.
func (m *Manager) Create(shape Shape, dtype DataType) (*Handle, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !dtype.IsValid() {
		return nil, errdefs.InvalidArgument("dtype", int(dtype), "unsupported data type")
	}
	if !m.IsOpen() {
		return nil, errdefs.UseAfterFree("manager", m.ID(), "allocate in")
	}

	data, err := allocNative(shape.ByteSize(dtype))
	if err != nil {
		return nil, fmt.Errorf("allocate %s%v: %w", dtype, shape, err)
	}

	h := newHandle(shape, dtype, m.device, data)
	if err := m.Attach(h); err != nil {
		_ = freeNative(data)
		return nil, err
	}
	return h, nil
}

// FromFloat32s allocates a float32 buffer and copies values into it.
func (m *Manager) FromFloat32s(values []float32, shape Shape) (*Handle, error) {
	return fromSlice(m, values, shape)
}

// FromInt32s allocates an int32 buffer and copies values into it.
func (m *Manager) FromInt32s(values []int32, shape Shape) (*Handle, error) {
	return fromSlice(m, values, shape)
}

func fromSlice[T DType](m *Manager, values []T, shape Shape) (*Handle, error) {
	if shape.NumElements() != len(values) {
		return nil, errdefs.InvalidArgument("shape", shape, "requires %d elements, but got %d", shape.NumElements(), len(values))
	}
	h, err := m.Create(shape, inferDataType[T]())
	if err != nil {
		return nil, err
	}
	if err := set(h, values); err != nil {
		return nil, err
	}
	return h, nil
}

// Attach transfers ownership of h to m, detaching it from its previous
// manager. Attaching to a closed manager, or attaching a released handle, is a
// UseAfterFreeError.
func (m *Manager) Attach(h *Handle) error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return errdefs.UseAfterFree("handle", h.ID(), "attach")
	}
	previous := h.manager
	h.mu.Unlock()

	if previous == m {
		return nil
	}

	m.mu.Lock()
	if m.closed || m.closing {
		m.mu.Unlock()
		return errdefs.UseAfterFree("manager", m.ID(), "attach to")
	}
	m.handles[h] = struct{}{}
	m.mu.Unlock()

	h.mu.Lock()
	h.manager = m
	h.mu.Unlock()

	if previous != nil {
		previous.detach(h)
	}
	return nil
}

// detach forgets h without releasing it.
func (m *Manager) detach(h *Handle) {
	m.mu.Lock()
	delete(m.handles, h)
	m.mu.Unlock()
}

func (m *Manager) detachChild(child *Manager) {
	m.mu.Lock()
	if i := slices.Index(m.children, child); i >= 0 {
		m.children = slices.Delete(m.children, i, i+1)
	}
	m.mu.Unlock()
}

// Close releases every child and handle in the subtree and marks m closed.
// Calling Close on a closed manager is a no-op. The returned error joins any
// native deallocation failures; the manager is closed regardless.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed || m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	children := m.children
	m.children = nil
	m.mu.Unlock()

	var errs []error
	for _, child := range children {
		if err := child.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[*Handle]struct{})
	m.mu.Unlock()

	for h := range handles {
		if err := h.release(m); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", h.ID(), err))
		}
	}

	m.mu.Lock()
	m.closing = false
	m.closed = true
	m.mu.Unlock()

	if m.parent != nil {
		m.parent.detachChild(m)
	}
	untrackRoot(m)

	return errors.Join(errs...)
}

// WithSubManager runs fn with a fresh child of parent and closes the child on
// every exit path, including panics. A close failure is joined with fn's
// error.
func WithSubManager(parent *Manager, fn func(m *Manager) error) (err error) {
	sub := parent.NewSubManager()
	defer func() {
		if closeErr := sub.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(sub)
}
