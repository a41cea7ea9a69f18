package dataset

import (
	"context"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/parallel"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Names given to the handles produced by the built-in batchifiers.
const (
	DataName  = "data"
	LabelName = "label"
)

// Batchifier assembles the raw records of one batch into buffers owned by m.
// inputs and labels are in sampler order and have equal length.
type Batchifier[I, L any] func(ctx context.Context, m *tensor.Manager, inputs []I, labels []L) (data, label *tensor.NDList, err error)

// StackFloat32 stacks feature rows into a [batch, width] float32 buffer and
// labels into a [batch] float32 buffer.
func StackFloat32(ctx context.Context, m *tensor.Manager, inputs [][]float32, labels []float32) (*tensor.NDList, *tensor.NDList, error) {
	data, err := stackRows(ctx, m, inputs)
	if err != nil {
		return nil, nil, err
	}
	data.SetName(DataName)

	label, err := m.FromFloat32s(labels, tensor.Shape{len(labels)})
	if err != nil {
		return nil, nil, err
	}
	label.SetName(LabelName)

	return tensor.NewNDList(data), tensor.NewNDList(label), nil
}

// StackInt32Windows stacks token windows into [batch, window] int32 buffers.
func StackInt32Windows(ctx context.Context, m *tensor.Manager, inputs, labels [][]int32) (*tensor.NDList, *tensor.NDList, error) {
	data, err := stackRows(ctx, m, inputs)
	if err != nil {
		return nil, nil, err
	}
	data.SetName(DataName)

	label, err := stackRows(ctx, m, labels)
	if err != nil {
		return nil, nil, err
	}
	label.SetName(LabelName)

	return tensor.NewNDList(data), tensor.NewNDList(label), nil
}

func stackRows[T float32 | int32](ctx context.Context, m *tensor.Manager, rows [][]T) (*tensor.Handle, error) {
	if len(rows) == 0 {
		return nil, errdefs.InvalidArgument("rows", 0, "cannot stack an empty batch")
	}
	width := len(rows[0])

	var (
		h   *tensor.Handle
		dst []T
		err error
	)
	switch any(rows[0]).(type) {
	case []float32:
		h, err = m.Create(tensor.Shape{len(rows), width}, tensor.Float32)
		if err == nil {
			var view []float32
			view, err = h.Float32s()
			dst = any(view).([]T)
		}
	case []int32:
		h, err = m.Create(tensor.Shape{len(rows), width}, tensor.Int32)
		if err == nil {
			var view []int32
			view, err = h.Int32s()
			dst = any(view).([]T)
		}
	}
	if err != nil {
		return nil, err
	}

	err = parallel.ForRows(ctx, len(rows), width, func(r, offset int) error {
		if len(rows[r]) != width {
			return errdefs.InvalidArgument("rows", nil, "row %d has %d elements, want %d", r, len(rows[r]), width)
		}
		copy(dst[offset:offset+width], rows[r])
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return h, nil
}
