package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadOrSkip loads an encoding, skipping when the BPE ranks cannot be
// fetched (offline CI without TIKTOKEN_CACHE_DIR).
func loadOrSkip(t *testing.T, name string) *TikToken {
	t.Helper()
	tok, err := NewTikToken(name)
	if err != nil {
		t.Skipf("tiktoken encoding %s unavailable: %v", name, err)
	}
	return tok
}

func TestTikToken_Roundtrip(t *testing.T) {
	tok := loadOrSkip(t, EncodingCL100kBase)
	assert.Equal(t, EncodingCL100kBase, tok.Name())

	tests := []struct {
		name string
		text string
	}{
		{"simple", "Hello, world!"},
		{"code", "func main() { fmt.Println(\"hi\") }"},
		{"unicode", "naïve café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := tok.Encode(tt.text)
			require.NoError(t, err)
			require.NotEmpty(t, ids)

			text, err := tok.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestTikToken_InvalidEncoding(t *testing.T) {
	tok, err := NewTikToken("invalid_encoding_xyz")
	assert.Error(t, err)
	assert.Nil(t, tok)
}
