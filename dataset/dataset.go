// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"context"
	"io"

	"github.com/born-ml/ndtrain/internal/dataset"
	"github.com/born-ml/ndtrain/internal/sampler"
	"github.com/born-ml/ndtrain/internal/tensor"
	"github.com/born-ml/ndtrain/internal/tokenizer"
)

// Dataset is a random-access mapping from index to an (input, label) pair.
type Dataset[I, L any] = dataset.Dataset[I, L]

// Config configures a Pipeline.
type Config = dataset.Config

// DefaultPrefetchNumber is used when Config.PrefetchNumber is zero.
const DefaultPrefetchNumber = dataset.DefaultPrefetchNumber

// Sampler orders dataset indices into groups.
type Sampler = sampler.Sampler

// SamplerKind identifies a sampler variant.
type SamplerKind = sampler.Kind

// Sampler kinds.
const (
	KindSequential = sampler.KindSequential
	KindRandom     = sampler.KindRandom
	KindBatched    = sampler.KindBatched
)

// Sequential returns a sampler yielding 0..size-1 in order.
func Sequential() Sampler {
	return sampler.Sequential()
}

// Random returns a sampler yielding a seeded permutation.
func Random(seed uint64) Sampler {
	return sampler.Random(seed)
}

// Batched groups the output of inner into batchSize chunks.
func Batched(inner Sampler, batchSize int, dropLast bool) (Sampler, error) {
	return sampler.Batched(inner, batchSize, dropLast)
}

// Sampling returns a batched sampler from the usual training flags.
func Sampling(batchSize int, shuffle, dropLast bool, seed uint64) (Sampler, error) {
	return dataset.Sampling(batchSize, shuffle, dropLast, seed)
}

// ArrayDataset is an in-memory dataset of float32 rows.
type ArrayDataset = dataset.ArrayDataset

// NewArrayDataset creates a dataset over features and labels.
func NewArrayDataset(features [][]float32, labels []float32) (*ArrayDataset, error) {
	return dataset.NewArrayDataset(features, labels)
}

// CSVOptions controls LoadCSV.
type CSVOptions = dataset.CSVOptions

// LoadCSV loads a numeric CSV file into an ArrayDataset.
func LoadCSV(filename string, opts CSVOptions) (*ArrayDataset, error) {
	return dataset.LoadCSV(filename, opts)
}

// ReadCSV parses numeric CSV records from r.
func ReadCSV(r io.Reader, opts CSVOptions) (*ArrayDataset, error) {
	return dataset.ReadCSV(r, opts)
}

// TextDataset cuts a token stream into next-token prediction windows.
type TextDataset = dataset.TextDataset

// NewTextDataset tokenizes text and windows it.
func NewTextDataset(tok tokenizer.Tokenizer, text string, window int) (*TextDataset, error) {
	return dataset.NewTextDataset(tok, text, window)
}

// Batchifier assembles the records of one batch into buffers.
type Batchifier[I, L any] = dataset.Batchifier[I, L]

// Names of the handles produced by the built-in batchifiers.
const (
	DataName  = dataset.DataName
	LabelName = dataset.LabelName
)

// StackFloat32 stacks rows into [batch, width] and labels into [batch].
func StackFloat32(ctx context.Context, m *tensor.Manager, inputs [][]float32, labels []float32) (*tensor.NDList, *tensor.NDList, error) {
	return dataset.StackFloat32(ctx, m, inputs, labels)
}

// StackInt32Windows stacks token windows into [batch, window] buffers.
func StackInt32Windows(ctx context.Context, m *tensor.Manager, inputs, labels [][]int32) (*tensor.NDList, *tensor.NDList, error) {
	return dataset.StackInt32Windows(ctx, m, inputs, labels)
}

// Batch is one group of records materialized into buffers.
type Batch = dataset.Batch

// State is the lifecycle stage of one batch.
type State = dataset.State

// Batch states.
const (
	StatePending   = dataset.StatePending
	StateFetching  = dataset.StateFetching
	StateReady     = dataset.StateReady
	StateDelivered = dataset.StateDelivered
	StateCancelled = dataset.StateCancelled
	StateReleased  = dataset.StateReleased
)

// Pipeline builds batches ahead of the consumer and delivers them in order.
type Pipeline[I, L any] = dataset.Pipeline[I, L]

// Stats is a snapshot of pipeline counters.
type Stats = dataset.Stats

// ErrPipelineClosed is returned by Next after Close.
var ErrPipelineClosed = dataset.ErrPipelineClosed

// NewPipeline validates cfg, evaluates the sampler once and starts building
// batches under parent.
func NewPipeline[I, L any](ctx context.Context, parent *tensor.Manager, ds Dataset[I, L], batchify Batchifier[I, L], cfg Config) (*Pipeline[I, L], error) {
	return dataset.NewPipeline(ctx, parent, ds, batchify, cfg)
}
