// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/born-ml/ndtrain/dataset"
	"github.com/born-ml/ndtrain/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineFromCSV(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("0,1,2\n1,3,4\n0,5,6\n1,7,8\n1,9,10\n"), dataset.CSVOptions{})
	require.NoError(t, err)

	s, err := dataset.Batched(dataset.Sequential(), 2, false)
	require.NoError(t, err)

	root := tensor.NewManager(tensor.CPUDevice())
	defer root.Close()

	p, err := dataset.NewPipeline(context.Background(), root, dataset.Dataset[[]float32, float32](ds),
		dataset.StackFloat32, dataset.Config{Sampler: s})
	require.NoError(t, err)
	defer p.Close()

	var rows []int
	for {
		b, err := p.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, ok := b.Data.ByName(dataset.DataName)
		require.True(t, ok)
		rows = append(rows, data.Shape()[0])
		require.NoError(t, b.Close())
	}
	assert.Equal(t, []int{2, 2, 1}, rows)
	assert.Equal(t, 3, p.Stats().Delivered)
}

func TestSamplerFacade(t *testing.T) {
	s, err := dataset.Sampling(3, true, true, 5)
	require.NoError(t, err)
	assert.Equal(t, dataset.KindBatched, s.Kind())

	groups, err := s.Sample(10)
	require.NoError(t, err)
	assert.Len(t, groups, 3)

	again, err := dataset.Batched(dataset.Random(5), 3, true)
	require.NoError(t, err)
	groups2, err := again.Sample(10)
	require.NoError(t, err)
	assert.Equal(t, groups, groups2)
}
