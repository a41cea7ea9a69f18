package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/logging"
	"github.com/born-ml/ndtrain/internal/tensor"
	"github.com/eapache/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrPipelineClosed is returned by Next after Close.
var ErrPipelineClosed = errors.New("pipeline is closed")

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Batches      int // Batches the sampler produced
	Delivered    int // Batches handed to the consumer
	Failed       int // Batches whose construction failed
	Cancelled    int // Batches released by Close before delivery
	InFlight     int // Batches being built or waiting for the consumer
	PeakInFlight int // Highest InFlight observed
}

// slot is one position of the sampler sequence while it is in flight.
type slot struct {
	batch *Batch
	done  chan struct{} // closed when construction finishes
	err   error
}

// Pipeline builds batches ahead of the consumer on a bounded set of workers
// and delivers them strictly in sampler order.
//
// At most PrefetchNumber batches are being built or waiting for delivery at
// any time. Each batch is built inside a fresh child of the parent manager.
// Next is meant for a single consumer goroutine.
type Pipeline[I, L any] struct {
	dataset  Dataset[I, L]
	batchify Batchifier[I, L]
	parent   *tensor.Manager
	device   tensor.Device
	groups   [][]int
	prefetch int

	ctx        context.Context
	cancel     context.CancelFunc
	tokens     *semaphore.Weighted
	workers    errgroup.Group
	dispatched chan struct{}
	log        *zap.Logger

	mu      sync.Mutex
	pending *queue.Queue // *slot, in sampler order
	wake    chan struct{}
	done    bool // dispatcher finished
	closed  bool
	next    int // next position to deliver
	stats   Stats
}

// NewPipeline validates cfg, evaluates the sampler once and starts building
// batches. Cancelling ctx stops construction; Close must still be called.
func NewPipeline[I, L any](
	ctx context.Context,
	parent *tensor.Manager,
	ds Dataset[I, L],
	batchify Batchifier[I, L],
	cfg Config,
) (*Pipeline[I, L], error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errdefs.Configuration("dataset", "the dataset must be set")
	}
	if batchify == nil {
		return nil, errdefs.Configuration("dataset", "the batchifier must be set")
	}
	if parent == nil || !parent.IsOpen() {
		return nil, errdefs.Configuration("dataset", "an open parent manager is required")
	}

	groups, err := cfg.Sampler.Sample(ds.Size())
	if err != nil {
		return nil, fmt.Errorf("sample dataset: %w", err)
	}

	device := parent.Device()
	if cfg.Device != nil {
		device = *cfg.Device
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pipeline[I, L]{
		dataset:    ds,
		batchify:   batchify,
		parent:     parent,
		device:     device,
		groups:     groups,
		prefetch:   cfg.PrefetchNumber,
		ctx:        ctx,
		cancel:     cancel,
		tokens:     semaphore.NewWeighted(int64(cfg.PrefetchNumber)),
		dispatched: make(chan struct{}),
		log:        logging.Named("pipeline"),
		pending:    queue.New(),
		wake:       make(chan struct{}),
	}
	p.stats.Batches = len(groups)
	p.workers.SetLimit(cfg.PrefetchNumber)

	p.log.Debug("pipeline started",
		zap.Int("batches", len(groups)),
		zap.Int("prefetch", cfg.PrefetchNumber),
		zap.Stringer("sampler", cfg.Sampler),
		zap.Stringer("device", device))

	go p.dispatch()
	return p, nil
}

// Len returns the number of batches the pipeline will deliver.
func (p *Pipeline[I, L]) Len() int {
	return len(p.groups)
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline[I, L]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// broadcastLocked wakes every goroutine waiting in Next. p.mu must be held.
func (p *Pipeline[I, L]) broadcastLocked() {
	close(p.wake)
	p.wake = make(chan struct{})
}

// dispatch walks the sampler sequence, taking one token per batch. Tokens are
// returned when the batch is delivered, which bounds the in-flight set.
func (p *Pipeline[I, L]) dispatch() {
	defer close(p.dispatched)
	defer func() {
		p.mu.Lock()
		p.done = true
		p.broadcastLocked()
		p.mu.Unlock()
	}()

	for pos, indices := range p.groups {
		if err := p.tokens.Acquire(p.ctx, 1); err != nil {
			return
		}

		s := &slot{
			batch: &Batch{Indices: indices, Position: pos},
			done:  make(chan struct{}),
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.tokens.Release(1)
			return
		}
		p.pending.Add(s)
		p.stats.InFlight++
		p.stats.PeakInFlight = max(p.stats.PeakInFlight, p.stats.InFlight)
		p.broadcastLocked()
		p.mu.Unlock()

		p.workers.Go(func() error {
			p.build(s)
			return nil
		})
	}
}

// build materializes one batch inside its own manager. On failure the
// manager is closed before the slot completes, so nothing leaks.
func (p *Pipeline[I, L]) build(s *slot) {
	defer close(s.done)

	b := s.batch
	b.setState(StateFetching)
	m := p.parent.NewSubManagerOn(p.device)
	b.manager = m

	if err := p.fill(b, m); err != nil {
		if closeErr := m.Close(); closeErr != nil {
			p.log.Error("release failed batch", zap.Int("position", b.Position), zap.Error(closeErr))
		}
		if p.ctx.Err() != nil {
			b.setState(StateCancelled)
		}
		s.err = fmt.Errorf("batch %d: %w", b.Position, err)
		return
	}
	b.setState(StateReady)
}

func (p *Pipeline[I, L]) fill(b *Batch, m *tensor.Manager) error {
	inputs := make([]I, len(b.Indices))
	labels := make([]L, len(b.Indices))
	for i, idx := range b.Indices {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		in, label, err := p.dataset.Get(idx)
		if err != nil {
			return fmt.Errorf("get record %d: %w", idx, err)
		}
		inputs[i] = in
		labels[i] = label
	}

	data, label, err := p.batchify(p.ctx, m, inputs, labels)
	if err != nil {
		return fmt.Errorf("batchify: %w", err)
	}
	b.Data = data
	b.Labels = label
	return nil
}

// Next returns the next batch in sampler order, blocking until it is built.
// It returns io.EOF after the last batch and ErrPipelineClosed after Close.
// A batch whose construction failed is reported at its position; later
// batches remain available.
func (p *Pipeline[I, L]) Next(ctx context.Context) (*Batch, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPipelineClosed
		}

		if p.pending.Length() > 0 {
			s := p.pending.Peek().(*slot)
			p.mu.Unlock()

			select {
			case <-s.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			b, ok, err := p.deliver(s)
			if ok {
				return b, err
			}
			continue
		}

		if p.done {
			err := io.EOF
			if p.next < len(p.groups) {
				// Dispatch stopped early: the pipeline context was cancelled.
				err = p.ctx.Err()
				if err == nil {
					err = ErrPipelineClosed
				}
			}
			p.mu.Unlock()
			return nil, err
		}

		wake := p.wake
		p.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// deliver pops s if it is still the head. ok is false when another caller
// got there first.
func (p *Pipeline[I, L]) deliver(s *slot) (*Batch, bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, true, ErrPipelineClosed
	}
	if p.pending.Length() == 0 || p.pending.Peek().(*slot) != s {
		p.mu.Unlock()
		return nil, false, nil
	}
	p.pending.Remove()
	p.next++
	p.stats.InFlight--
	if s.err != nil {
		p.stats.Failed++
	} else {
		p.stats.Delivered++
	}
	p.mu.Unlock()
	p.tokens.Release(1)

	if s.err != nil {
		s.batch.setState(StateReleased)
		return nil, true, s.err
	}
	if !s.batch.manager.IsOpen() {
		// The parent manager was closed under the pipeline.
		s.batch.setState(StateReleased)
		return nil, true, errdefs.UseAfterFree("manager", s.batch.manager.ID(), "deliver batch from")
	}
	s.batch.setState(StateDelivered)
	return s.batch, true, nil
}

// All yields batches until the sequence ends or an error occurs. The error,
// if any, is yielded last.
func (p *Pipeline[I, L]) All(ctx context.Context) iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for {
			b, err := p.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

// Close cancels outstanding construction, waits for the workers and releases
// every batch that was not delivered. Delivered batches stay with the
// consumer. Close is idempotent.
func (p *Pipeline[I, L]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.broadcastLocked()
	p.mu.Unlock()

	p.cancel()
	<-p.dispatched
	_ = p.workers.Wait()

	var errs []error
	p.mu.Lock()
	for p.pending.Length() > 0 {
		s := p.pending.Remove().(*slot)
		s.batch.setState(StateCancelled)
		if m := s.batch.manager; m != nil {
			if err := m.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.batch.setState(StateReleased)
		p.stats.Cancelled++
		p.stats.InFlight--
	}
	stats := p.stats
	p.mu.Unlock()

	p.log.Debug("pipeline closed",
		zap.Int("delivered", stats.Delivered),
		zap.Int("cancelled", stats.Cancelled),
		zap.Int("failed", stats.Failed))

	return errors.Join(errs...)
}
