package dataset

import (
	"math"
	"testing"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	batched, err := sampler.New(3, false, false, 0)
	require.NoError(t, err)

	tests := []struct {
		name         string
		cfg          Config
		wantErr      error
		wantPrefetch int
	}{
		{"missing sampler", Config{}, errdefs.ErrConfiguration, 0},
		{"negative prefetch", Config{Sampler: batched, PrefetchNumber: -1}, errdefs.ErrInvalidArgument, 0},
		{"default prefetch", Config{Sampler: batched}, nil, DefaultPrefetchNumber},
		{"explicit prefetch", Config{Sampler: batched, PrefetchNumber: 5}, nil, 5},
		{"bare sequential", Config{Sampler: sampler.Sequential(), PrefetchNumber: 1}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefetch, got.PrefetchNumber)
		})
	}
}

func TestSampling(t *testing.T) {
	s, err := Sampling(4, true, true, 11)
	require.NoError(t, err)
	assert.Equal(t, sampler.KindBatched, s.Kind())
	assert.True(t, s.Shuffle())
	assert.True(t, s.DropLast())
	assert.Equal(t, 4, s.BatchSize())

	_, err = Sampling(0, false, false, 0)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestArrayDataset(t *testing.T) {
	ds, err := NewArrayDataset(
		[][]float32{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}},
		[]float32{0, 1, 0, 1, 0},
	)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Size())
	assert.Equal(t, 2, ds.Width())

	x, y, err := ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, x)
	assert.Equal(t, float32(1), y)

	_, _, err = ds.Get(5)
	assert.Error(t, err)
	_, _, err = ds.Get(-1)
	assert.Error(t, err)

	train, val, err := ds.Split(0.2)
	require.NoError(t, err)
	assert.Equal(t, 4, train.Size())
	assert.Equal(t, 1, val.Size())
	x, _, err = val.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 10}, x)
}

func TestArrayDataset_SplitBounds(t *testing.T) {
	ds, err := NewArrayDataset([][]float32{{1}, {2}, {3}}, []float32{1, 2, 3})
	require.NoError(t, err)

	train, val, err := ds.Split(0)
	require.NoError(t, err)
	assert.Equal(t, 3, train.Size())
	assert.Equal(t, 0, val.Size())

	train, val, err = ds.Split(1)
	require.NoError(t, err)
	assert.Equal(t, 0, train.Size())
	assert.Equal(t, 3, val.Size())

	for _, ratio := range []float32{-0.5, 1.5, float32(math.NaN())} {
		_, _, err := ds.Split(ratio)
		assert.ErrorIs(t, err, errdefs.ErrInvalidArgument, "ratio %v", ratio)
	}
}

func TestNewArrayDataset_Invalid(t *testing.T) {
	_, err := NewArrayDataset([][]float32{{1}}, []float32{1, 2})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = NewArrayDataset([][]float32{{1, 2}, {3}}, []float32{1, 2})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	empty, err := NewArrayDataset(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Size())
	assert.Equal(t, 0, empty.Width())
}
