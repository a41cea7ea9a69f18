package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/born-ml/ndtrain/internal/dataset"
	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/logging"
	"github.com/born-ml/ndtrain/internal/metrics"
	"github.com/born-ml/ndtrain/internal/nn"
	"github.com/born-ml/ndtrain/internal/tensor"
	"go.uber.org/zap"
)

// Metric names recorded by the trainer. Durations use metrics.UnitNano.
const (
	MetricPreprocess  = "PredictPreprocess"
	MetricInference   = "Inference"
	MetricPostprocess = "PredictPostprocess"
	MetricTrainBatch  = "TrainBatch"
	MetricLoss        = "Loss"
)

// Translator converts between external values and compute-graph buffers.
// Buffers created during conversion belong in ctx.Manager().
type Translator[I, O any] interface {
	ProcessInputBatch(ctx *Context, inputs []I) (*tensor.NDList, error)
	ProcessOutputBatch(ctx *Context, outputs *tensor.NDList) ([]O, error)
}

// Controller applies accumulated gradients. *optim.Controller implements it.
type Controller interface {
	Step() error
	Close() error
}

// BatchSource yields batches until io.EOF. *dataset.Pipeline implements it.
type BatchSource interface {
	Next(ctx context.Context) (*dataset.Batch, error)
	Close() error
}

// Config configures a Trainer.
type Config struct {
	// Devices in priority order. The first one backs every context. Empty
	// selects the CPU.
	Devices []tensor.Device

	// Controller applies gradients in Step. Optional until Step is called.
	Controller Controller

	// Metrics receives timings. Optional.
	Metrics metrics.Sink

	// Seed initializes parameters the model has not allocated yet.
	Seed uint64
}

// Trainer runs predict and training steps for one model.
type Trainer[I, O any] struct {
	model      *Model
	translator Translator[I, O]
	devices    []tensor.Device
	controller Controller
	manager    *tensor.Manager
	log        *zap.Logger

	mu      sync.RWMutex
	metrics metrics.Sink
	seed    uint64
	closed  bool
}

// NewTrainer creates a trainer for model. Parameters the model has not
// allocated are initialized from cfg.Seed.
func NewTrainer[I, O any](model *Model, translator Translator[I, O], cfg Config) (*Trainer[I, O], error) {
	if model == nil || model.Block == nil || model.Manager == nil {
		return nil, errdefs.Configuration("training", "a model with a block and a manager is required")
	}
	if !model.Manager.IsOpen() {
		return nil, errdefs.UseAfterFree("manager", model.Manager.ID(), "create trainer on")
	}

	devices := cfg.Devices
	if len(devices) == 0 {
		devices = []tensor.Device{tensor.CPUDevice()}
	}
	if err := model.Initialize(cfg.Seed); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", model.Name, err)
	}

	t := &Trainer[I, O]{
		model:      model,
		translator: translator,
		devices:    append([]tensor.Device(nil), devices...),
		controller: cfg.Controller,
		manager:    model.Manager.NewSubManagerOn(devices[0]),
		log:        logging.Named("training").With(zap.String("model", model.Name)),
		metrics:    cfg.Metrics,
		seed:       cfg.Seed,
	}
	t.log.Debug("trainer created",
		zap.Stringer("device", devices[0]),
		zap.Int("devices", len(devices)),
		zap.Bool("controller", cfg.Controller != nil))
	return t, nil
}

// Model returns the model.
func (t *Trainer[I, O]) Model() *Model {
	return t.model
}

// Devices returns the configured devices.
func (t *Trainer[I, O]) Devices() []tensor.Device {
	return append([]tensor.Device(nil), t.devices...)
}

// Manager returns the trainer's manager.
func (t *Trainer[I, O]) Manager() *tensor.Manager {
	return t.manager
}

// Metrics returns the metrics sink, or nil.
func (t *Trainer[I, O]) Metrics() metrics.Sink {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// SetMetrics replaces the metrics sink. Nil disables metrics.
func (t *Trainer[I, O]) SetMetrics(s metrics.Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = s
}

// Seed returns the seed.
func (t *Trainer[I, O]) Seed() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seed
}

// SetSeed updates the seed.
func (t *Trainer[I, O]) SetSeed(seed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seed = seed
}

// NewContext opens a scope on the first device. The caller must Close it.
func (t *Trainer[I, O]) NewContext() *Context {
	return &Context{
		model:   t.model,
		device:  t.devices[0],
		manager: t.manager.NewSubManagerOn(t.devices[0]),
		metrics: t.Metrics(),
	}
}

// Forward runs the block on inputs without timing or scoping.
func (t *Trainer[I, O]) Forward(inputs *tensor.NDList) (*tensor.NDList, error) {
	return t.model.Block.Forward(inputs)
}

// Step applies one gradient update through the controller.
func (t *Trainer[I, O]) Step() error {
	if t.controller == nil {
		return errdefs.Configuration("training", "no optimizer is set; step() requires a controller")
	}
	return t.controller.Step()
}

// Predict converts inputs, runs the block and converts the outputs back.
//
// Conversion failures are returned as TranslationError unless they already
// belong to the runtime taxonomy. Forward failures are returned unchanged.
// Both conversion contexts are closed on every path, panics included.
func (t *Trainer[I, O]) Predict(inputs []I) (outputs []O, err error) {
	if t.translator == nil {
		return nil, errdefs.Configuration("training", "predict requires a translator")
	}
	if !t.manager.IsOpen() {
		return nil, errdefs.UseAfterFree("trainer", t.manager.ID(), "predict with")
	}

	sink := t.Metrics()
	stamp := time.Now()
	// Postprocess time is recorded on every exit, measured from the end of
	// the last stage that completed.
	defer func() { metrics.Since(sink, MetricPostprocess, stamp) }()

	inCtx := t.NewContext()
	defer closeScope(inCtx, &err)
	outCtx := t.NewContext()
	defer closeScope(outCtx, &err)

	data, err := t.translator.ProcessInputBatch(inCtx, inputs)
	if err != nil {
		return nil, translationError("preprocess", err)
	}
	metrics.Since(sink, MetricPreprocess, stamp)
	stamp = time.Now()

	result, err := t.model.Block.Forward(data)
	if err != nil {
		return nil, err
	}
	if err := result.WaitToRead(); err != nil {
		return nil, err
	}
	metrics.Since(sink, MetricInference, stamp)
	stamp = time.Now()

	outputs, err = t.translator.ProcessOutputBatch(outCtx, result)
	if err != nil {
		return nil, translationError("postprocess", err)
	}
	return outputs, nil
}

// TrainBatch runs forward, loss and backward on batch, then applies a
// gradient update when a controller is configured. The batch is closed on
// every path.
func (t *Trainer[I, O]) TrainBatch(batch *dataset.Batch, loss nn.Loss) (lossValue float32, err error) {
	defer func() {
		if closeErr := batch.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	if loss == nil {
		return 0, errdefs.Configuration("training", "a loss is required to train")
	}

	start := time.Now()
	preds, err := t.model.Block.Forward(batch.Data)
	if err != nil {
		return 0, fmt.Errorf("forward batch %d: %w", batch.Position, err)
	}
	lossValue, grad, err := loss.Evaluate(batch.Labels, preds)
	if err != nil {
		return 0, fmt.Errorf("loss of batch %d: %w", batch.Position, err)
	}
	if b, ok := t.model.Block.(nn.Backwarder); ok {
		if _, err := b.Backward(batch.Data, grad); err != nil {
			return 0, fmt.Errorf("backward batch %d: %w", batch.Position, err)
		}
	}
	if t.controller != nil {
		if err := t.controller.Step(); err != nil {
			return 0, err
		}
	}

	if sink := t.Metrics(); sink != nil {
		metrics.Since(sink, MetricTrainBatch, start)
		sink.AddMetric(MetricLoss, float64(lossValue), "")
	}
	return lossValue, nil
}

// Fit trains on every batch of src and returns the mean loss. src is closed
// on every path.
func (t *Trainer[I, O]) Fit(ctx context.Context, src BatchSource, loss nn.Loss) (meanLoss float32, err error) {
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	var (
		total   float64
		batches int
	)
	for {
		batch, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		value, err := t.TrainBatch(batch, loss)
		if err != nil {
			return 0, err
		}
		total += float64(value)
		batches++
	}

	if batches == 0 {
		return 0, nil
	}
	meanLoss = float32(total / float64(batches))
	t.log.Debug("fit done", zap.Int("batches", batches), zap.Float32("loss", meanLoss))
	return meanLoss, nil
}

// Close releases the trainer's manager and the controller. It is
// idempotent.
func (t *Trainer[I, O]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	var errs []error
	if t.controller != nil {
		errs = append(errs, t.controller.Close())
	}
	errs = append(errs, t.manager.Close())
	return errors.Join(errs...)
}

func translationError(stage string, err error) error {
	if errdefs.IsRuntime(err) {
		return err
	}
	return errdefs.Translation(stage, err)
}

func closeScope(c *Context, err *error) {
	if closeErr := c.Close(); closeErr != nil {
		*err = errors.Join(*err, closeErr)
	}
}
