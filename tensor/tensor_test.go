// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/ndtrain/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAPI(t *testing.T) {
	root := tensor.NewManager(tensor.CPUDevice())
	defer root.Close()

	var kept *tensor.Handle
	err := tensor.WithSubManager(root, func(m *tensor.Manager) error {
		x, err := m.FromFloat32s([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
		if err != nil {
			return err
		}
		kept = x
		return root.Attach(x)
	})
	require.NoError(t, err)

	values, err := kept.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, values)
	assert.Equal(t, tensor.Float32, kept.DType())
	assert.Equal(t, tensor.CPU, kept.Device().Type)

	l := tensor.NewNDList(kept)
	assert.Equal(t, 1, l.Len())
}

func TestPublicLeakCheck(t *testing.T) {
	tensor.TrackLeaks(true)
	defer tensor.TrackLeaks(false)

	m := tensor.NewManager(tensor.GPUDevice(0))
	warnings := tensor.CheckLeaks()
	require.Len(t, warnings, 1)
	assert.Equal(t, m.ID(), warnings[0].ManagerID)
	assert.False(t, m.IsOpen())
}
