// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package training_test

import (
	"testing"

	"github.com/born-ml/ndtrain/nn"
	"github.com/born-ml/ndtrain/tensor"
	"github.com/born-ml/ndtrain/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct{}

func (identity) ProcessInputBatch(ctx *training.Context, inputs []float32) (*tensor.NDList, error) {
	h, err := ctx.Manager().FromFloat32s(inputs, tensor.Shape{len(inputs), 1})
	if err != nil {
		return nil, err
	}
	return tensor.NewNDList(h), nil
}

func (identity) ProcessOutputBatch(_ *training.Context, outputs *tensor.NDList) ([]float32, error) {
	values, err := outputs.Head().Float32s()
	if err != nil {
		return nil, err
	}
	return append([]float32(nil), values...), nil
}

func TestPredictFacade(t *testing.T) {
	model := training.NewModel("prelu", nn.NewPrelu(), tensor.CPUDevice())
	defer model.Close()

	m := training.NewMetrics()
	trainer, err := training.NewTrainer[float32, float32](model, identity{}, training.Config{Metrics: m})
	require.NoError(t, err)
	defer trainer.Close()

	out, err := trainer.Predict([]float32{2, -4})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, -1}, out)

	for _, name := range []string{training.MetricPreprocess, training.MetricInference, training.MetricPostprocess} {
		got, ok := m.Latest(name)
		require.True(t, ok, name)
		assert.Equal(t, training.UnitNano, got.Unit)
	}
}
