package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVOptions controls LoadCSV.
type CSVOptions struct {
	LabelColumn int     // Column holding the label (default: 0)
	HasHeader   bool    // Skip the first row
	MaxRows     int     // Maximum rows to load (0 = all)
	Scale       float32 // Multiplier applied to every feature (0 = 1)
}

// LoadCSV loads a numeric CSV file into an ArrayDataset.
//
// CSV Format (Kaggle MNIST style, LabelColumn 0, Scale 1/255):
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
func LoadCSV(filename string, opts CSVOptions) (*ArrayDataset, error) {
	//nolint:gosec // G304: path comes from the caller, which is expected for dataset loading
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV parses CSV records from r. See LoadCSV.
func ReadCSV(r io.Reader, opts CSVOptions) (*ArrayDataset, error) {
	if opts.Scale == 0 {
		opts.Scale = 1
	}

	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if opts.HasHeader {
		if len(records) == 0 {
			return nil, fmt.Errorf("CSV file is missing header")
		}
		records = records[1:]
	}

	if opts.MaxRows > 0 && len(records) > opts.MaxRows {
		records = records[:opts.MaxRows]
	}

	features := make([][]float32, len(records))
	labels := make([]float32, len(records))

	for i, record := range records {
		row := i + 1
		if opts.HasHeader {
			row++
		}
		if opts.LabelColumn < 0 || opts.LabelColumn >= len(record) {
			return nil, fmt.Errorf("label column %d out of range at row %d (%d columns)", opts.LabelColumn, row, len(record))
		}

		label, err := strconv.ParseFloat(record[opts.LabelColumn], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", row, err)
		}
		labels[i] = float32(label)

		features[i] = make([]float32, 0, len(record)-1)
		for j, field := range record {
			if j == opts.LabelColumn {
				continue
			}
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid value at row %d, column %d: %w", row, j+1, err)
			}
			features[i] = append(features[i], float32(v)*opts.Scale)
		}
	}

	return NewArrayDataset(features, labels)
}
