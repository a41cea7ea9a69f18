package dataset

import (
	"context"
	"testing"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackFloat32(t *testing.T) {
	m := tensor.NewManager(tensor.CPUDevice())
	defer m.Close()

	data, label, err := StackFloat32(context.Background(), m,
		[][]float32{{1, 2, 3}, {4, 5, 6}},
		[]float32{7, 8},
	)
	require.NoError(t, err)

	x := data.Head()
	assert.Equal(t, DataName, x.Name())
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	values, err := x.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, values)

	y, ok := label.ByName(LabelName)
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{2}, y.Shape())
	labels, err := y.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 8}, labels)

	assert.Same(t, m, x.Manager())
	assert.Equal(t, 2, m.NumHandles())
}

func TestStackInt32Windows(t *testing.T) {
	m := tensor.NewManager(tensor.CPUDevice())
	defer m.Close()

	data, label, err := StackInt32Windows(context.Background(), m,
		[][]int32{{1, 2}, {3, 4}, {5, 6}},
		[][]int32{{2, 3}, {4, 5}, {6, 7}},
	)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, data.Head().Shape())
	assert.Equal(t, tensor.Int32, label.Head().DType())

	got, err := label.Head().Int32s()
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4, 5, 6, 7}, got)
}

func TestStack_Errors(t *testing.T) {
	m := tensor.NewManager(tensor.CPUDevice())
	defer m.Close()
	ctx := context.Background()

	_, _, err := StackFloat32(ctx, m, nil, nil)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, _, err = StackFloat32(ctx, m, [][]float32{{1, 2}, {3}}, []float32{0, 1})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	require.NoError(t, m.Close())
	_, _, err = StackFloat32(ctx, m, [][]float32{{1}}, []float32{0})
	assert.ErrorIs(t, err, errdefs.ErrUseAfterFree)
}
