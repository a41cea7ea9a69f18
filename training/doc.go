// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package training runs inference and training steps under scoped buffer
// ownership.
//
// # Overview
//
// A Trainer binds a Model (a block and the manager owning its parameters)
// to a Translator that converts external values to buffers and back, an
// optional gradient Controller and an optional metrics Sink.
//
// Predict opens two scoped contexts, converts the inputs, runs the block,
// waits for its outputs and converts them back. Both contexts are closed on
// every path. Conversion failures surface as TranslationError; failures that
// already belong to the runtime taxonomy pass through unchanged.
//
// # Basic Usage
//
//	model := training.NewModel("mlp", block, tensor.CPUDevice())
//	defer model.Close()
//
//	ctrl, _ := optim.NewController(block.Parameters(), optim.NewSGD(optim.SGDConfig{LR: 0.1}), nil)
//	trainer, err := training.NewTrainer[[]float32, float32](model, nil, training.Config{
//	    Controller: ctrl,
//	    Metrics:    training.NewMetrics(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer trainer.Close()
//
//	loss, err := trainer.Fit(ctx, pipeline, nn.NewMSELoss())
package training
