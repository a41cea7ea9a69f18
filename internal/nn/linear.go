package nn

import (
	"context"
	"fmt"
	"io"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/parallel"
	"github.com/born-ml/ndtrain/internal/tensor"
)

const linearVersion = 1

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer. Parameters are allocated by
// Initialize.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", tensor.Shape{outFeatures, inFeatures}, Xavier(inFeatures, outFeatures)),
		bias:        NewParameter("bias", tensor.Shape{outFeatures}, Zeros()),
	}
}

// Forward computes the output of the linear layer.
func (l *Linear) Forward(inputs *tensor.NDList) (*tensor.NDList, error) {
	x, xs, err := headFloat32s(inputs, "Linear")
	if err != nil {
		return nil, err
	}
	batch, features, err := rows2D(x, "Linear")
	if err != nil {
		return nil, err
	}
	if features != l.inFeatures {
		return nil, errdefs.InvalidArgument("inputs", x.Shape(), "Linear expects %d features", l.inFeatures)
	}

	w, err := l.weight.Float32s()
	if err != nil {
		return nil, err
	}
	b, err := l.bias.Float32s()
	if err != nil {
		return nil, err
	}

	out, err := x.Manager().Create(tensor.Shape{batch, l.outFeatures}, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("linear forward: %w", err)
	}
	done := out.BeginWrite()
	defer done()
	ys, err := out.Float32s()
	if err != nil {
		return nil, err
	}

	err = parallel.ForRows(context.Background(), batch, l.outFeatures, func(r, offset int) error {
		row := xs[r*l.inFeatures : (r+1)*l.inFeatures]
		for o := range l.outFeatures {
			sum := b[o]
			wRow := w[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, v := range row {
				sum += v * wRow[i]
			}
			ys[offset+o] = sum
		}
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return tensor.NewNDList(out), nil
}

// Backward accumulates dW = g.T @ x and db = sum(g) and returns dx = g @ W.
func (l *Linear) Backward(inputs, gradOutputs *tensor.NDList) (*tensor.NDList, error) {
	x, xs, err := headFloat32s(inputs, "Linear")
	if err != nil {
		return nil, err
	}
	g, gs, err := headFloat32s(gradOutputs, "Linear")
	if err != nil {
		return nil, err
	}
	batch, _, err := rows2D(x, "Linear")
	if err != nil {
		return nil, err
	}
	if !g.Shape().Equal(tensor.Shape{batch, l.outFeatures}) {
		return nil, errdefs.InvalidArgument("gradOutputs", g.Shape(), "Linear expects gradient of shape (%d, %d)", batch, l.outFeatures)
	}

	w, err := l.weight.Float32s()
	if err != nil {
		return nil, err
	}

	dw := make([]float32, len(w))
	db := make([]float32, l.outFeatures)
	for r := range batch {
		row := xs[r*l.inFeatures : (r+1)*l.inFeatures]
		for o := range l.outFeatures {
			gv := gs[r*l.outFeatures+o]
			db[o] += gv
			dRow := dw[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, v := range row {
				dRow[i] += gv * v
			}
		}
	}
	if err := l.weight.AccumulateGrad(dw); err != nil {
		return nil, err
	}
	if err := l.bias.AccumulateGrad(db); err != nil {
		return nil, err
	}

	dx, err := g.Manager().Create(x.Shape(), tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("linear backward: %w", err)
	}
	dxs, err := dx.Float32s()
	if err != nil {
		return nil, err
	}
	err = parallel.ForRows(context.Background(), batch, l.inFeatures, func(r, offset int) error {
		for o := range l.outFeatures {
			gv := gs[r*l.outFeatures+o]
			wRow := w[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, wv := range wRow {
				dxs[offset+i] += gv * wv
			}
		}
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return tensor.NewNDList(dx), nil
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// ParameterShape returns the shape of the named parameter.
func (l *Linear) ParameterShape(name string) (tensor.Shape, error) {
	switch name {
	case "weight":
		return l.weight.Shape(), nil
	case "bias":
		return l.bias.Shape(), nil
	default:
		return nil, errdefs.InvalidArgument("name", name, "Linear has no such parameter")
	}
}

// SaveParameters writes a version byte followed by weight and bias.
func (l *Linear) SaveParameters(w io.Writer) error {
	if _, err := w.Write([]byte{linearVersion}); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := l.weight.Save(w); err != nil {
		return err
	}
	return l.bias.Save(w)
}

// LoadParameters reads parameters written by SaveParameters.
func (l *Linear) LoadParameters(m *tensor.Manager, r io.Reader) error {
	if err := readVersion(r, linearVersion); err != nil {
		return err
	}
	if err := l.weight.Load(m, r); err != nil {
		return err
	}
	return l.bias.Load(m, r)
}

var (
	_ Block          = (*Linear)(nil)
	_ Backwarder     = (*Linear)(nil)
	_ ParameterStore = (*Linear)(nil)
)
