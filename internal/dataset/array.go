package dataset

import (
	"fmt"

	"github.com/born-ml/ndtrain/internal/errdefs"
)

// ArrayDataset is an in-memory dataset of fixed-width float32 feature rows
// and one float32 label per row.
type ArrayDataset struct {
	features [][]float32
	labels   []float32
}

// NewArrayDataset creates a dataset over features and labels. The slices are
// not copied.
func NewArrayDataset(features [][]float32, labels []float32) (*ArrayDataset, error) {
	if len(features) != len(labels) {
		return nil, errdefs.InvalidArgument("labels", len(labels), "feature count (%d) != label count", len(features))
	}
	if len(features) > 0 {
		width := len(features[0])
		for i, row := range features {
			if len(row) != width {
				return nil, errdefs.InvalidArgument("features", nil, "row %d has %d columns, want %d", i, len(row), width)
			}
		}
	}
	return &ArrayDataset{features: features, labels: labels}, nil
}

// Size returns the number of rows.
func (d *ArrayDataset) Size() int {
	return len(d.features)
}

// Width returns the number of features per row.
func (d *ArrayDataset) Width() int {
	if len(d.features) == 0 {
		return 0
	}
	return len(d.features[0])
}

// Get returns row index and its label.
func (d *ArrayDataset) Get(index int) ([]float32, float32, error) {
	if index < 0 || index >= len(d.features) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(d.features))
	}
	return d.features[index], d.labels[index], nil
}

// Split splits the dataset into train and validation parts.
//
// Parameters:
//   - validationRatio: fraction of rows for validation in [0, 1] (e.g., 0.2 for 20%)
func (d *ArrayDataset) Split(validationRatio float32) (*ArrayDataset, *ArrayDataset, error) {
	if !(validationRatio >= 0 && validationRatio <= 1) {
		return nil, nil, errdefs.InvalidArgument("validationRatio", validationRatio, "must be in [0, 1]")
	}
	splitIdx := min(max(int(float32(d.Size())*(1.0-validationRatio)), 0), d.Size())

	return &ArrayDataset{
			features: d.features[:splitIdx],
			labels:   d.labels[:splitIdx],
		}, &ArrayDataset{
			features: d.features[splitIdx:],
			labels:   d.labels[splitIdx:],
		}, nil
}

var _ Dataset[[]float32, float32] = (*ArrayDataset)(nil)
