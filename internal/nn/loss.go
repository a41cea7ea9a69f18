package nn

import (
	"fmt"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - labels)²)
//
// Labels must have as many elements as the predictions; a [batch] label
// buffer matches [batch, 1] predictions.
type MSELoss struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Evaluate returns the loss and its gradient 2 * (predictions - labels) / n.
func (MSELoss) Evaluate(labels, predictions *tensor.NDList) (float32, *tensor.NDList, error) {
	p, ps, err := headFloat32s(predictions, "MSELoss")
	if err != nil {
		return 0, nil, err
	}
	_, ys, err := headFloat32s(labels, "MSELoss")
	if err != nil {
		return 0, nil, err
	}
	if len(ps) != len(ys) {
		return 0, nil, errdefs.InvalidArgument("labels", len(ys), "MSELoss expects %d labels", len(ps))
	}

	grad, err := p.Manager().Create(p.Shape(), tensor.Float32)
	if err != nil {
		return 0, nil, fmt.Errorf("mse gradient: %w", err)
	}
	gs, err := grad.Float32s()
	if err != nil {
		return 0, nil, err
	}

	n := float32(len(ps))
	var sum float32
	for i, v := range ps {
		diff := v - ys[i]
		sum += diff * diff
		gs[i] = 2 * diff / n
	}
	return sum / n, tensor.NewNDList(grad), nil
}

var _ Loss = MSELoss{}
