// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms and the controller that
// applies them.
//
// # Overview
//
// An Optimizer is a per-parameter update rule. A Controller binds one to a
// parameter set, owns the optimizer state buffers and, on every Step,
// updates each parameter that carries a gradient and clears that gradient.
//
// # Basic Usage
//
//	ctrl, err := optim.NewController(block.Parameters(), optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	// after a backward pass
//	if err := ctrl.Step(); err != nil {
//	    log.Fatal(err)
//	}
package optim
