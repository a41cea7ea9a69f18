package engine

import (
	"runtime"
	"slices"
	"testing"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, 100, Version())
	assert.Equal(t, "0.1.0", VersionString())
}

func TestOpNames(t *testing.T) {
	names := OpNames()
	require.NotEmpty(t, names)
	assert.True(t, slices.IsSorted(names))
	assert.Contains(t, names, "linear")

	names[0] = "mutated"
	assert.NotEqual(t, "mutated", OpNames()[0])
}

func TestDefault_CPUOnly(t *testing.T) {
	e := Default()
	assert.Equal(t, 0, e.GPUCount())
	assert.Equal(t, []tensor.Device{tensor.CPUDevice()}, e.Devices())

	_, _, err := e.GPUMemory(tensor.CPUDevice())
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, _, err = e.GPUMemory(tensor.GPUDevice(0))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestEngine_GPUs(t *testing.T) {
	e, err := New(
		GPUInfo{ID: 1, Name: "b", FreeMemory: 10, TotalMemory: 20},
		GPUInfo{ID: 0, Name: "a", FreeMemory: 5, TotalMemory: 8},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, e.GPUCount())
	assert.Equal(t, []tensor.Device{tensor.CPUDevice(), tensor.GPUDevice(0), tensor.GPUDevice(1)}, e.Devices())

	free, total, err := e.GPUMemory(tensor.GPUDevice(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), free)
	assert.Equal(t, uint64(20), total)

	g, ok := e.GPU(0)
	require.True(t, ok)
	assert.Equal(t, "a", g.Name)
	_, ok = e.GPU(7)
	assert.False(t, ok)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(GPUInfo{ID: -1})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = New(GPUInfo{ID: 0}, GPUInfo{ID: 0})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestCPUFeatures(t *testing.T) {
	features := CPUFeatures()
	if runtime.GOARCH == "amd64" {
		assert.Contains(t, features, "sse2")
	}
	assert.Equal(t, len(features), len(slices.Compact(slices.Clone(features))))
}
