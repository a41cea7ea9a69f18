package tensor

import (
	"errors"
	"sync"
	"testing"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CloseIsIdempotent(t *testing.T) {
	m := NewManager(CPUDevice())
	require.True(t, m.IsOpen())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.False(t, m.IsOpen())
}

func TestManager_CloseReleasesSubtree(t *testing.T) {
	root := NewManager(CPUDevice())
	child := root.NewSubManager()

	var handles []*Handle
	for range 2 {
		h, err := root.Create(Shape{4}, Float32)
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for range 3 {
		h, err := child.Create(Shape{2, 2}, Int32)
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, 2, root.NumHandles())
	assert.Equal(t, 3, child.NumHandles())
	assert.Equal(t, 1, root.NumChildren())

	require.NoError(t, root.Close())

	assert.False(t, root.IsOpen())
	assert.False(t, child.IsOpen())
	for _, h := range handles {
		assert.True(t, h.IsReleased(), "handle %s not released", h.ID())
		_, err := h.Bytes()
		assert.ErrorIs(t, err, errdefs.ErrUseAfterFree)
	}
}

func TestManager_ChildCloseDetachesFromParent(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()

	child := root.NewSubManager()
	grandchild := child.NewSubManager()
	assert.Equal(t, 1, root.NumChildren())
	assert.Same(t, root, child.Parent())

	require.NoError(t, child.Close())
	assert.Equal(t, 0, root.NumChildren())
	assert.False(t, grandchild.IsOpen())
	assert.True(t, root.IsOpen())
}

func TestManager_AttachAfterClose(t *testing.T) {
	m := NewManager(CPUDevice())
	require.NoError(t, m.Close())

	_, err := m.Create(Shape{1}, Float32)
	var uaf *errdefs.UseAfterFreeError
	require.ErrorAs(t, err, &uaf)
	assert.Equal(t, "manager", uaf.Resource)
}

func TestManager_SubManagerOfClosedParent(t *testing.T) {
	m := NewManager(CPUDevice())
	require.NoError(t, m.Close())

	sub := m.NewSubManager()
	assert.False(t, sub.IsOpen())
	_, err := sub.Create(Shape{1}, Float32)
	assert.ErrorIs(t, err, errdefs.ErrUseAfterFree)
}

func TestManager_AttachTransfersOwnership(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()
	a := root.NewSubManager()
	b := root.NewSubManager()

	h, err := a.FromFloat32s([]float32{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	require.NoError(t, b.Attach(h))
	assert.Same(t, b, h.Manager())
	assert.Equal(t, 0, a.NumHandles())
	assert.Equal(t, 1, b.NumHandles())

	require.NoError(t, a.Close())
	assert.False(t, h.IsReleased(), "closing the old owner must not free a transferred handle")

	require.NoError(t, b.Close())
	assert.True(t, h.IsReleased())
	assert.ErrorIs(t, b.Attach(h), errdefs.ErrUseAfterFree)
}

func TestManager_AttachSameManager(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	h, err := m.Create(Shape{1}, Float32)
	require.NoError(t, err)
	require.NoError(t, m.Attach(h))
	assert.Equal(t, 1, m.NumHandles())
}

func TestManager_CreateInvalidShape(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	_, err := m.Create(Shape{2, 0}, Float32)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = m.FromFloat32s([]float32{1, 2}, Shape{3})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestManager_CreateUnknownDataType(t *testing.T) {
	m := NewManager(CPUDevice())
	defer m.Close()

	for _, dt := range []DataType{DataType(9), DataType(-1)} {
		assert.NotPanics(t, func() {
			_, err := m.Create(Shape{2}, dt)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
	assert.Equal(t, 0, m.NumHandles())
}

func TestManager_ConcurrentSubManagers(t *testing.T) {
	root := NewManager(CPUDevice())

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			sub := root.NewSubManager()
			_, err := sub.Create(Shape{8}, Float32)
			assert.NoError(t, err)
			assert.NoError(t, sub.Close())
		})
	}
	wg.Wait()

	assert.Equal(t, 0, root.NumChildren())
	require.NoError(t, root.Close())
}

func TestWithSubManager(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()

	var scoped *Manager
	var h *Handle
	sentinel := errors.New("boom")
	err := WithSubManager(root, func(m *Manager) error {
		scoped = m
		var err error
		h, err = m.Create(Shape{2}, Float32)
		require.NoError(t, err)
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.False(t, scoped.IsOpen())
	assert.True(t, h.IsReleased())
	assert.True(t, root.IsOpen())
}

func TestWithSubManager_Panic(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()

	var scoped *Manager
	assert.Panics(t, func() {
		_ = WithSubManager(root, func(m *Manager) error {
			scoped = m
			panic("kernel failure")
		})
	})
	assert.False(t, scoped.IsOpen())
}

func TestManager_NewSubManagerOn(t *testing.T) {
	root := NewManager(CPUDevice())
	defer root.Close()

	sub := root.NewSubManagerOn(GPUDevice(0))
	assert.Equal(t, GPUDevice(0), sub.Device())
	h, err := sub.Create(Shape{1}, Float32)
	require.NoError(t, err)
	assert.Equal(t, GPUDevice(0), h.Device())
	assert.Equal(t, CPUDevice(), root.NewSubManager().Device())
}
