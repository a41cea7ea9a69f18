package nn

import (
	"fmt"
	"io"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// ParameterStore is implemented by blocks that can persist their parameters.
// Each block writes its own encoding version first and rejects versions it
// does not know on load.
type ParameterStore interface {
	SaveParameters(w io.Writer) error
	LoadParameters(m *tensor.Manager, r io.Reader) error
}

func readVersion(r io.Reader, want byte) error {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if buf[0] != want {
		return errdefs.InvalidArgument("version", buf[0], "unsupported encoding version")
	}
	return nil
}
