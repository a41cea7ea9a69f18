package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	const data = "label,a,b\n1,10,20\n0,30,40\n1,50,60\n"

	tests := []struct {
		name         string
		opts         CSVOptions
		wantRows     int
		wantFirst    []float32
		wantFirstLbl float32
	}{
		{"header", CSVOptions{HasHeader: true}, 3, []float32{10, 20}, 1},
		{"max rows", CSVOptions{HasHeader: true, MaxRows: 2}, 2, []float32{10, 20}, 1},
		{"scaled", CSVOptions{HasHeader: true, Scale: 0.1}, 3, []float32{1, 2}, 1},
		{"label last", CSVOptions{HasHeader: true, LabelColumn: 2}, 3, []float32{1, 10}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(data), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, ds.Size())

			x, y, err := ds.Get(0)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.wantFirst, x, 1e-5)
			assert.Equal(t, tt.wantFirstLbl, y)
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts CSVOptions
	}{
		{"missing header", "", CSVOptions{HasHeader: true}},
		{"bad label", "x,1\n", CSVOptions{}},
		{"bad value", "1,y\n", CSVOptions{}},
		{"label column out of range", "1,2\n", CSVOptions{LabelColumn: 5}},
		{"ragged rows", "1,2,3\n1,2\n", CSVOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("3,0,255\n7,255,0\n"), 0o600))

	ds, err := LoadCSV(path, CSVOptions{Scale: 1.0 / 255})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Size())

	x, y, err := ds.Get(1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 0}, x, 1e-6)
	assert.Equal(t, float32(7), y)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}
