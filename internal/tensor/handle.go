package tensor

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/google/uuid"
)

// Handle references one native buffer.
//
// A handle is owned by exactly one Manager at a time. Ownership moves only
// through Manager.Attach. Once the owning manager closes, the buffer is
// released and every accessor returns a UseAfterFreeError.
type Handle struct {
	id     uuid.UUID
	shape  Shape
	dtype  DataType
	device Device

	mu       sync.Mutex
	name     string
	manager  *Manager
	data     []byte
	released bool

	ready readiness
}

func newHandle(shape Shape, dtype DataType, device Device, data []byte) *Handle {
	return &Handle{
		id:     uuid.New(),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
		data:   data,
	}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	return h.id.String()
}

// Name returns the optional name used by NDList lookups.
func (h *Handle) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// SetName sets the handle name.
func (h *Handle) SetName(name string) {
	h.mu.Lock()
	h.name = name
	h.mu.Unlock()
}

// Shape returns the buffer shape.
func (h *Handle) Shape() Shape {
	return h.shape
}

// DType returns the element type.
func (h *Handle) DType() DataType {
	return h.dtype
}

// Device returns the device the buffer was created for.
func (h *Handle) Device() Device {
	return h.device
}

// NumElements returns the total number of elements.
func (h *Handle) NumElements() int {
	return h.shape.NumElements()
}

// Manager returns the current owner. The result is for lookups only.
func (h *Handle) Manager() *Manager {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.manager
}

// IsReleased reports whether the native buffer has been freed.
func (h *Handle) IsReleased() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Bytes returns the raw buffer. The slice aliases native memory and must not
// be used after the owning manager closes.
func (h *Handle) Bytes() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, errdefs.UseAfterFree("handle", h.ID(), "read")
	}
	return h.data, nil
}

// Float32s returns a float32 view of the buffer.
func (h *Handle) Float32s() ([]float32, error) {
	return view[float32](h)
}

// Int32s returns an int32 view of the buffer.
func (h *Handle) Int32s() ([]int32, error) {
	return view[int32](h)
}

// SetFloat32s copies values into the buffer.
func (h *Handle) SetFloat32s(values []float32) error {
	return set(h, values)
}

// SetInt32s copies values into the buffer.
func (h *Handle) SetInt32s(values []int32) error {
	return set(h, values)
}

// BeginWrite marks an asynchronous write in progress. Readers blocked in
// WaitToRead resume once every returned done func has been called. Calling
// done more than once is harmless.
func (h *Handle) BeginWrite() (done func()) {
	h.ready.begin()
	var once sync.Once
	return func() { once.Do(h.ready.end) }
}

// WaitToRead blocks until all pending writes to the buffer have completed.
func (h *Handle) WaitToRead() error {
	if h.IsReleased() {
		return errdefs.UseAfterFree("handle", h.ID(), "wait on")
	}
	h.ready.wait()
	return nil
}

// String returns a human-readable description.
func (h *Handle) String() string {
	return fmt.Sprintf("Handle[%s]%v on %s", h.dtype, h.shape, h.device)
}

// release frees the buffer if owner still owns it. Pending writes are waited
// out first so the memory is never unmapped under an in-flight computation.
func (h *Handle) release(owner *Manager) error {
	h.mu.Lock()
	if h.released || h.manager != owner {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	h.ready.wait()

	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	data := h.data
	h.data = nil
	h.mu.Unlock()

	if len(data) == 0 {
		return nil
	}
	return freeNative(data)
}

func view[T DType](h *Handle) ([]T, error) {
	want := inferDataType[T]()
	if h.dtype != want {
		return nil, errdefs.InvalidArgument("dtype", h.dtype, "handle holds %s, not %s", h.dtype, want)
	}
	data, err := h.Bytes()
	if err != nil {
		return nil, err
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), h.NumElements()), nil
}

func set[T DType](h *Handle, values []T) error {
	dst, err := view[T](h)
	if err != nil {
		return err
	}
	if len(values) != len(dst) {
		return errdefs.InvalidArgument("values", nil, "shape %v requires %d elements, but got %d", h.shape, len(dst), len(values))
	}
	copy(dst, values)
	return nil
}

// readiness is the read barrier for asynchronous writes.
type readiness struct {
	mu      sync.Mutex
	pending int
	done    chan struct{}
}

func (r *readiness) begin() {
	r.mu.Lock()
	if r.pending == 0 {
		r.done = make(chan struct{})
	}
	r.pending++
	r.mu.Unlock()
}

func (r *readiness) end() {
	r.mu.Lock()
	r.pending--
	if r.pending == 0 {
		close(r.done)
	}
	r.mu.Unlock()
}

func (r *readiness) wait() {
	r.mu.Lock()
	if r.pending == 0 {
		r.mu.Unlock()
		return
	}
	done := r.done
	r.mu.Unlock()
	<-done
}
