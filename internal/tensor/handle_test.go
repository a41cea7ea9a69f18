package tensor

import (
	"testing"
	"time"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_TypedViews(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	f, err := m.FromFloat32s([]float32{1.5, -2, 3}, Shape{3})
	require.NoError(t, err)
	got, err := f.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 3}, got)

	_, err = f.Int32s()
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	i, err := m.FromInt32s([]int32{7, 8, 9, 10}, Shape{2, 2})
	require.NoError(t, err)
	ints, err := i.Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8, 9, 10}, ints)
	assert.Equal(t, Shape{2, 2}, i.Shape())
	assert.Equal(t, Int32, i.DType())

	b, err := i.Bytes()
	require.NoError(t, err)
	assert.Len(t, b, 16)
}

func TestHandle_SetLengthMismatch(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	h, err := m.Create(Shape{4}, Float32)
	require.NoError(t, err)
	assert.ErrorIs(t, h.SetFloat32s([]float32{1}), errdefs.ErrInvalidArgument)
	require.NoError(t, h.SetFloat32s([]float32{1, 2, 3, 4}))
}

func TestHandle_NewBufferIsZeroed(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	h, err := m.Create(Shape{16}, Float32)
	require.NoError(t, err)
	data, err := h.Float32s()
	require.NoError(t, err)
	for _, v := range data {
		assert.Zero(t, v)
	}
}

func TestHandle_UseAfterFree(t *testing.T) {
	m := NewManager(CPUDevice())
	h, err := m.Create(Shape{2}, Float32)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = h.Float32s()
	var uaf *errdefs.UseAfterFreeError
	require.ErrorAs(t, err, &uaf)
	assert.Equal(t, h.ID(), uaf.ID)
	assert.ErrorIs(t, h.WaitToRead(), errdefs.ErrUseAfterFree)
	assert.ErrorIs(t, h.SetFloat32s([]float32{1, 2}), errdefs.ErrUseAfterFree)
}

func TestHandle_WaitToRead(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	h, err := m.Create(Shape{1}, Float32)
	require.NoError(t, err)

	require.NoError(t, h.WaitToRead())

	done := h.BeginWrite()
	waited := make(chan struct{})
	go func() {
		assert.NoError(t, h.WaitToRead())
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("WaitToRead returned while a write was pending")
	case <-time.After(20 * time.Millisecond):
	}

	done()
	done()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitToRead did not return after the write completed")
	}
}

func TestHandle_ReleaseWaitsForPendingWrite(t *testing.T) {
	m := NewManager(CPUDevice())
	h, err := m.Create(Shape{1}, Float32)
	require.NoError(t, err)

	done := h.BeginWrite()
	closed := make(chan struct{})
	go func() {
		assert.NoError(t, m.Close())
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close freed a buffer with a pending write")
	case <-time.After(20 * time.Millisecond):
	}
	done()
	<-closed
	assert.True(t, h.IsReleased())
}

func TestNDList(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()
	src := root.NewSubManager()
	dst := root.NewSubManager()

	a, err := src.Create(Shape{1}, Float32)
	require.NoError(t, err)
	a.SetName("data")
	b, err := src.Create(Shape{1}, Float32)
	require.NoError(t, err)
	b.SetName("label")

	list := NewNDList(a)
	list.Add(b)
	assert.Equal(t, 2, list.Len())
	assert.Same(t, a, list.Head())
	got, ok := list.ByName("label")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = list.ByName("missing")
	assert.False(t, ok)

	require.NoError(t, list.Attach(dst))
	require.NoError(t, src.Close())
	require.NoError(t, list.WaitToRead())
	assert.Equal(t, 2, dst.NumHandles())

	var empty *NDList
	assert.Zero(t, empty.Len())
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 96, s.ByteSize(Float32))
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{2, 3}))
	assert.Equal(t, "(2, 3, 4)", s.String())
	assert.Error(t, Shape{-1}.Validate())
}

func TestDevice(t *testing.T) {
	assert.Equal(t, "cpu()", CPUDevice().String())
	assert.Equal(t, "gpu(1)", GPUDevice(1).String())
	assert.Equal(t, CPUDevice(), Device{})
}
