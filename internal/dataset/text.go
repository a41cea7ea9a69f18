package dataset

import (
	"fmt"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tokenizer"
)

// TextDataset cuts a token stream into fixed-length windows for next-token
// prediction. Record i is tokens[i*w : i*w+w] with the label shifted by one
// token.
type TextDataset struct {
	tokens []int32
	window int
}

// NewTextDataset tokenizes text with tok and windows it.
func NewTextDataset(tok tokenizer.Tokenizer, text string, window int) (*TextDataset, error) {
	if window <= 0 {
		return nil, errdefs.InvalidArgument("window", window, "must be positive")
	}
	tokens, err := tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize with %s: %w", tok.Name(), err)
	}
	return &TextDataset{tokens: tokens, window: window}, nil
}

// Size returns the number of complete windows.
func (d *TextDataset) Size() int {
	if len(d.tokens) < 2 {
		return 0
	}
	return (len(d.tokens) - 1) / d.window
}

// Window returns the window length.
func (d *TextDataset) Window() int {
	return d.window
}

// Get returns the input window and its next-token labels.
func (d *TextDataset) Get(index int) ([]int32, []int32, error) {
	if index < 0 || index >= d.Size() {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", index, d.Size())
	}
	start := index * d.window
	return d.tokens[start : start+d.window], d.tokens[start+1 : start+d.window+1], nil
}

var _ Dataset[[]int32, []int32] = (*TextDataset)(nil)
