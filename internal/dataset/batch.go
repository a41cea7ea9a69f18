package dataset

import (
	"sync/atomic"

	"github.com/born-ml/ndtrain/internal/tensor"
)

// State is the lifecycle stage of one batch.
type State int32

// Batch states. A batch moves Pending -> Fetching -> Ready -> Delivered ->
// Released, or from any state to Cancelled -> Released when the pipeline is
// closed first.
const (
	StatePending State = iota
	StateFetching
	StateReady
	StateDelivered
	StateCancelled
	StateReleased
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateDelivered:
		return "delivered"
	case StateCancelled:
		return "cancelled"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Batch is one group of records materialized into buffers. Every buffer is
// owned by the batch's manager; the consumer must Close the batch once.
type Batch struct {
	Data     *tensor.NDList
	Labels   *tensor.NDList
	Indices  []int // Dataset indices in sampler order
	Position int   // Position in the sampler's sequence

	manager *tensor.Manager
	state   atomic.Int32
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Indices)
}

// Manager returns the manager owning the batch buffers.
func (b *Batch) Manager() *tensor.Manager {
	return b.manager
}

// State returns the lifecycle stage.
func (b *Batch) State() State {
	return State(b.state.Load())
}

func (b *Batch) setState(s State) {
	b.state.Store(int32(s))
}

// Close releases every buffer of the batch. It is idempotent.
func (b *Batch) Close() error {
	var err error
	if b.manager != nil {
		err = b.manager.Close()
	}
	b.setState(StateReleased)
	return err
}
