// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package training

import (
	"github.com/born-ml/ndtrain/internal/metrics"
	"github.com/born-ml/ndtrain/internal/nn"
	"github.com/born-ml/ndtrain/internal/tensor"
	"github.com/born-ml/ndtrain/internal/training"
	"go.uber.org/zap"
)

// Model binds a block to the manager that owns its parameters.
type Model = training.Model

// NewModel creates a model with a fresh root manager on device.
func NewModel(name string, block nn.Block, device tensor.Device) *Model {
	return training.NewModel(name, block, device)
}

// Translator converts between external values and buffers.
type Translator[I, O any] = training.Translator[I, O]

// Controller applies accumulated gradients.
type Controller = training.Controller

// BatchSource yields batches until io.EOF.
type BatchSource = training.BatchSource

// Config configures a Trainer.
type Config = training.Config

// Context is a disposable scope for one conversion or inference unit.
type Context = training.Context

// Trainer runs predict and training steps for one model.
type Trainer[I, O any] = training.Trainer[I, O]

// NewTrainer creates a trainer for model.
func NewTrainer[I, O any](model *Model, translator Translator[I, O], cfg Config) (*Trainer[I, O], error) {
	return training.NewTrainer(model, translator, cfg)
}

// Metric names recorded by the trainer.
const (
	MetricPreprocess  = training.MetricPreprocess
	MetricInference   = training.MetricInference
	MetricPostprocess = training.MetricPostprocess
	MetricTrainBatch  = training.MetricTrainBatch
	MetricLoss        = training.MetricLoss
)

// Sink receives measurements.
type Sink = metrics.Sink

// Metrics is an in-memory Sink.
type Metrics = metrics.Metrics

// Metric is one recorded value.
type Metric = metrics.Metric

// UnitNano is the unit of recorded durations.
const UnitNano = metrics.UnitNano

// NewMetrics creates an empty in-memory sink.
func NewMetrics() *Metrics {
	return metrics.New()
}

// NewLogSink creates a sink writing every measurement to log.
func NewLogSink(log *zap.Logger) Sink {
	return metrics.NewLogSink(log)
}

// Tee fans measurements out to several sinks.
func Tee(sinks ...Sink) Sink {
	return metrics.Tee(sinks...)
}
