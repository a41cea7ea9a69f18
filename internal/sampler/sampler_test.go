package sampler

import (
	"math"
	"slices"
	"testing"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizes(groups [][]int) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = len(g)
	}
	return out
}

func TestBatched_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		batchSize int
		dropLast  bool
		want      []int
	}{
		{"keep last partial", 10, 3, false, []int{3, 3, 3, 1}},
		{"drop last partial", 10, 3, true, []int{3, 3, 3}},
		{"divisible", 9, 3, false, []int{3, 3, 3}},
		{"divisible drop", 9, 3, true, []int{3, 3, 3}},
		{"smaller than batch", 2, 5, false, []int{2}},
		{"smaller than batch drop", 2, 5, true, []int{}},
		{"empty", 0, 4, false, []int{}},
		{"empty drop", 0, 4, true, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Batched(Sequential(), tt.batchSize, tt.dropLast)
			require.NoError(t, err)

			groups, err := s.Sample(tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sizes(groups))
			assert.Equal(t, len(tt.want), s.NumBatches(tt.size))
		})
	}
}

func TestBatched_CountProperty(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for b := 1; b <= 7; b++ {
			keep, err := Batched(Sequential(), b, false)
			require.NoError(t, err)
			groups, err := keep.Sample(n)
			require.NoError(t, err)

			wantCount := (n + b - 1) / b
			require.Len(t, groups, wantCount, "n=%d b=%d", n, b)
			if n > 0 {
				wantLast := n % b
				if wantLast == 0 {
					wantLast = b
				}
				assert.Len(t, groups[len(groups)-1], wantLast, "n=%d b=%d", n, b)
			}

			drop, err := Batched(Sequential(), b, true)
			require.NoError(t, err)
			groups, err = drop.Sample(n)
			require.NoError(t, err)
			require.Len(t, groups, n/b, "n=%d b=%d", n, b)
			for _, g := range groups {
				assert.Len(t, g, b)
			}
		}
	}
}

func TestBatched_HugeBatchSize(t *testing.T) {
	for _, dropLast := range []bool{false, true} {
		s, err := Batched(Sequential(), math.MaxInt, dropLast)
		require.NoError(t, err)

		groups, err := s.Sample(10)
		require.NoError(t, err)
		assert.Len(t, groups, s.NumBatches(10), "dropLast=%t", dropLast)
	}

	s, err := Batched(Sequential(), math.MaxInt, false)
	require.NoError(t, err)
	groups, err := s.Sample(10)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 10)
}

func TestSequential_Order(t *testing.T) {
	s, err := Batched(Sequential(), 3, false)
	require.NoError(t, err)

	groups, err := s.Sample(7)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6}}, groups)
}

func TestSingleIndexVariants(t *testing.T) {
	groups, err := Sequential().Sample(3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}, {2}}, groups)

	groups, err = Random(1).Sample(5)
	require.NoError(t, err)
	assert.Len(t, groups, 5)
}

func TestRandom_Deterministic(t *testing.T) {
	s, err := Batched(Random(1234), 4, false)
	require.NoError(t, err)

	first, err := s.Sample(50)
	require.NoError(t, err)
	second, err := s.Sample(50)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var flat []int
	for _, g := range first {
		flat = append(flat, g...)
	}
	slices.Sort(flat)
	for i, v := range flat {
		assert.Equal(t, i, v)
	}

	other, err := Batched(Random(4321), 4, false)
	require.NoError(t, err)
	third, err := other.Sample(50)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestBatched_InvalidArguments(t *testing.T) {
	for _, bs := range []int{0, -1} {
		_, err := Batched(Sequential(), bs, false)
		assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
	}

	inner, err := Batched(Sequential(), 2, false)
	require.NoError(t, err)
	_, err = Batched(inner, 2, false)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = Batched(Sampler{}, 2, false)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = Sequential().Sample(-1)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestUnsetSampler(t *testing.T) {
	var s Sampler
	assert.False(t, s.IsSet())
	_, err := s.Sample(3)
	assert.ErrorIs(t, err, errdefs.ErrConfiguration)
}

func TestNew(t *testing.T) {
	s, err := New(8, true, true, 99)
	require.NoError(t, err)
	assert.Equal(t, KindBatched, s.Kind())
	assert.True(t, s.Shuffle())
	assert.True(t, s.DropLast())
	assert.Equal(t, 8, s.BatchSize())
	assert.Equal(t, uint64(99), s.Seed())
	assert.Equal(t, "batched(random(seed=99), size=8, dropLast=true)", s.String())

	s, err = New(8, false, false, 0)
	require.NoError(t, err)
	assert.False(t, s.Shuffle())
}

func TestShuffled_SeedRecorded(t *testing.T) {
	s := Shuffled()
	a, err := s.Sample(20)
	require.NoError(t, err)
	b, err := Random(s.Seed()).Sample(20)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
