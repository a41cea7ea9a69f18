// Package sampler implements the strategies that turn a dataset size into an
// ordered sequence of index groups (batches).
//
// Sampler is a closed set of variants. Sequential and Random order single
// indices; Batched wraps one of them and groups its order into batches:
//
//	s, err := sampler.Batched(sampler.Random(42), 32, true)
//	groups, err := s.Sample(dataset.Size())
package sampler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/born-ml/ndtrain/internal/errdefs"
)

// Kind identifies a sampler variant.
type Kind int

// Sampler variants. The zero Kind marks an unset sampler.
const (
	KindUnset Kind = iota
	KindSequential
	KindRandom
	KindBatched
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindSequential:
		return "sequential"
	case KindRandom:
		return "random"
	case KindBatched:
		return "batched"
	default:
		return "unset"
	}
}

// Sampler is an immutable sampling strategy. The zero value is unset and
// fails to sample.
type Sampler struct {
	kind      Kind
	seed      uint64
	inner     *Sampler
	batchSize int
	dropLast  bool
}

// Sequential orders indices 0..size-1 naturally.
func Sequential() Sampler {
	return Sampler{kind: KindSequential, batchSize: 1}
}

// Random orders indices by a permutation fixed by seed.
func Random(seed uint64) Sampler {
	return Sampler{kind: KindRandom, seed: seed, batchSize: 1}
}

// Shuffled is Random with a seed drawn from the clock. The chosen seed is
// available through Seed for reproduction.
func Shuffled() Sampler {
	return Random(uint64(time.Now().UnixNano())) //nolint:gosec // G115: any bit pattern is a valid seed
}

// Batched groups the order produced by inner into chunks of batchSize. With
// dropLast a final partial chunk is discarded.
func Batched(inner Sampler, batchSize int, dropLast bool) (Sampler, error) {
	if batchSize <= 0 {
		return Sampler{}, errdefs.InvalidArgument("batchSize", batchSize, "must be positive")
	}
	switch inner.kind {
	case KindSequential, KindRandom:
	case KindBatched:
		return Sampler{}, errdefs.InvalidArgument("inner", inner, "batched samplers cannot be nested")
	default:
		return Sampler{}, errdefs.InvalidArgument("inner", nil, "inner sampler must be set")
	}
	return Sampler{
		kind:      KindBatched,
		inner:     &inner,
		batchSize: batchSize,
		dropLast:  dropLast,
	}, nil
}

// New builds the usual Batched sampler: shuffled with seed when shuffle is
// true, sequential otherwise.
func New(batchSize int, shuffle, dropLast bool, seed uint64) (Sampler, error) {
	inner := Sequential()
	if shuffle {
		inner = Random(seed)
	}
	return Batched(inner, batchSize, dropLast)
}

// Kind returns the variant.
func (s Sampler) Kind() Kind {
	return s.kind
}

// IsSet reports whether s was built by one of the constructors.
func (s Sampler) IsSet() bool {
	return s.kind != KindUnset
}

// BatchSize returns the group size; 1 for the single-index variants.
func (s Sampler) BatchSize() int {
	return s.batchSize
}

// DropLast reports whether a final partial group is discarded.
func (s Sampler) DropLast() bool {
	return s.dropLast
}

// Seed returns the permutation seed, looking through a Batched wrapper.
func (s Sampler) Seed() uint64 {
	if s.inner != nil {
		return s.inner.seed
	}
	return s.seed
}

// Shuffle reports whether the order is randomized.
func (s Sampler) Shuffle() bool {
	if s.inner != nil {
		return s.inner.kind == KindRandom
	}
	return s.kind == KindRandom
}

// String describes the sampler.
func (s Sampler) String() string {
	switch s.kind {
	case KindRandom:
		return fmt.Sprintf("random(seed=%d)", s.seed)
	case KindBatched:
		return fmt.Sprintf("batched(%s, size=%d, dropLast=%t)", s.inner, s.batchSize, s.dropLast)
	default:
		return s.kind.String()
	}
}

// NumBatches returns how many groups Sample(size) yields.
func (s Sampler) NumBatches(size int) int {
	if size <= 0 || s.batchSize <= 0 {
		return 0
	}
	return numGroups(size, s.batchSize, s.dropLast)
}

// numGroups is ceil(size/batchSize), or floor with dropLast, without
// overflowing for large batch sizes.
func numGroups(size, batchSize int, dropLast bool) int {
	n := size / batchSize
	if !dropLast && size%batchSize != 0 {
		n++
	}
	return n
}

// Sample evaluates the sampler for a dataset of size elements. It is pure:
// the same sampler and size always give the same groups.
func (s Sampler) Sample(size int) ([][]int, error) {
	if size < 0 {
		return nil, errdefs.InvalidArgument("size", size, "dataset size must not be negative")
	}
	order, err := s.order(size)
	if err != nil {
		return nil, err
	}
	return group(order, s.batchSize, s.dropLast), nil
}

// order returns the flat index order before grouping.
func (s Sampler) order(size int) ([]int, error) {
	switch s.kind {
	case KindSequential:
		order := make([]int, size)
		for i := range order {
			order[i] = i
		}
		return order, nil
	case KindRandom:
		rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // G404: reproducible shuffling, not crypto
		return rng.Perm(size), nil
	case KindBatched:
		return s.inner.order(size)
	default:
		return nil, errdefs.Configuration("sampler", "sampler must be set")
	}
}

func group(order []int, batchSize int, dropLast bool) [][]int {
	if len(order) == 0 {
		return [][]int{}
	}
	groups := make([][]int, 0, numGroups(len(order), batchSize, dropLast))
	for start := 0; start < len(order); start += batchSize {
		end := start + min(batchSize, len(order)-start)
		if dropLast && end-start < batchSize {
			break
		}
		groups = append(groups, order[start:end:end])
	}
	return groups
}
