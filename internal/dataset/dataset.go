// Package dataset defines random-access datasets and the prefetching pipeline
// that turns them into batches owned by their own buffer managers.
//
// Example:
//
//	ds, err := dataset.NewArrayDataset(features, labels)
//	cfg := dataset.Config{PrefetchNumber: 4}
//	cfg.Sampler, _ = sampler.New(32, true, false, 7)
//
//	p, err := dataset.NewPipeline(ctx, root, ds, dataset.StackFloat32, cfg)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for batch, err := range p.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    train(batch)
//	    batch.Close()
//	}
package dataset

import (
	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/sampler"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// DefaultPrefetchNumber is used when Config.PrefetchNumber is zero.
const DefaultPrefetchNumber = 2

// Dataset is a random-access mapping from index to an (input, label) pair.
// Implementations must be safe for concurrent Get calls and must not mutate
// state observable to the pipeline.
type Dataset[I, L any] interface {
	// Size returns the number of records.
	Size() int

	// Get returns the record at index, 0 <= index < Size().
	Get(index int) (I, L, error)
}

// Config configures a Pipeline. It is a plain value: build it, then pass it
// to NewPipeline, which validates it before any batch work starts.
type Config struct {
	// Sampler orders the dataset into batches. Required.
	Sampler sampler.Sampler

	// PrefetchNumber bounds the batches that are being built or are waiting
	// for the consumer. Zero selects DefaultPrefetchNumber.
	PrefetchNumber int

	// Device for batch buffers. Nil uses the parent manager's device.
	Device *tensor.Device
}

// Sampling returns a batched sampler in the style of the usual
// (batchSize, shuffle, dropLast) training setup.
func Sampling(batchSize int, shuffle, dropLast bool, seed uint64) (sampler.Sampler, error) {
	return sampler.New(batchSize, shuffle, dropLast, seed)
}

// Validate reports configuration errors and returns cfg with defaults
// applied.
func (c Config) Validate() (Config, error) {
	if !c.Sampler.IsSet() {
		return c, errdefs.Configuration("dataset", "the sampler must be set")
	}
	if c.PrefetchNumber < 0 {
		return c, errdefs.InvalidArgument("prefetchNumber", c.PrefetchNumber, "must not be negative")
	}
	if c.PrefetchNumber == 0 {
		c.PrefetchNumber = DefaultPrefetchNumber
	}
	return c, nil
}
