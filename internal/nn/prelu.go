package nn

import (
	"fmt"
	"io"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

const preluVersion = 1

// Prelu is a parametric ReLU with one learned slope for negative inputs:
// y = x if x > 0, else alpha * x. The output has the shape of the input.
type Prelu struct {
	alpha *Parameter
}

// NewPrelu creates a Prelu block with alpha initialized to 0.25.
func NewPrelu() *Prelu {
	return &Prelu{alpha: NewParameter("alpha", tensor.Shape{1}, Constant(0.25))}
}

// Alpha returns the slope parameter.
func (p *Prelu) Alpha() *Parameter {
	return p.alpha
}

// Forward applies the activation element-wise.
func (p *Prelu) Forward(inputs *tensor.NDList) (*tensor.NDList, error) {
	x, xs, err := headFloat32s(inputs, "Prelu")
	if err != nil {
		return nil, err
	}
	alpha, err := p.alpha.Float32s()
	if err != nil {
		return nil, err
	}

	out, err := x.Manager().Create(x.Shape(), tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("prelu forward: %w", err)
	}
	done := out.BeginWrite()
	defer done()
	ys, err := out.Float32s()
	if err != nil {
		return nil, err
	}
	for i, v := range xs {
		if v > 0 {
			ys[i] = v
		} else {
			ys[i] = alpha[0] * v
		}
	}
	return tensor.NewNDList(out), nil
}

// Backward accumulates d(alpha) = sum(g * x) over non-positive x and returns
// dx = g where x > 0, alpha * g elsewhere.
func (p *Prelu) Backward(inputs, gradOutputs *tensor.NDList) (*tensor.NDList, error) {
	x, xs, err := headFloat32s(inputs, "Prelu")
	if err != nil {
		return nil, err
	}
	g, gs, err := headFloat32s(gradOutputs, "Prelu")
	if err != nil {
		return nil, err
	}
	if len(gs) != len(xs) {
		return nil, errdefs.InvalidArgument("gradOutputs", g.Shape(), "Prelu expects gradient of shape %s", x.Shape())
	}
	alpha, err := p.alpha.Float32s()
	if err != nil {
		return nil, err
	}

	dx, err := g.Manager().Create(x.Shape(), tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("prelu backward: %w", err)
	}
	dxs, err := dx.Float32s()
	if err != nil {
		return nil, err
	}

	var dAlpha float32
	for i, v := range xs {
		if v > 0 {
			dxs[i] = gs[i]
		} else {
			dxs[i] = alpha[0] * gs[i]
			dAlpha += gs[i] * v
		}
	}
	if err := p.alpha.AccumulateGrad([]float32{dAlpha}); err != nil {
		return nil, err
	}
	return tensor.NewNDList(dx), nil
}

// Parameters returns [alpha].
func (p *Prelu) Parameters() []*Parameter {
	return []*Parameter{p.alpha}
}

// OutputShape returns the input shape.
func (p *Prelu) OutputShape(input tensor.Shape) tensor.Shape {
	return input.Clone()
}

// ParameterShape returns the shape of the named parameter.
func (p *Prelu) ParameterShape(name string) (tensor.Shape, error) {
	if name == "alpha" {
		return tensor.Shape{1}, nil
	}
	return nil, errdefs.InvalidArgument("name", name, "invalid parameter name")
}

// SaveParameters writes a version byte followed by alpha.
func (p *Prelu) SaveParameters(w io.Writer) error {
	if _, err := w.Write([]byte{preluVersion}); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return p.alpha.Save(w)
}

// LoadParameters reads parameters written by SaveParameters.
func (p *Prelu) LoadParameters(m *tensor.Manager, r io.Reader) error {
	if err := readVersion(r, preluVersion); err != nil {
		return err
	}
	return p.alpha.Load(m, r)
}

var (
	_ Block          = (*Prelu)(nil)
	_ Backwarder     = (*Prelu)(nil)
	_ ParameterStore = (*Prelu)(nil)
)
