// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides compute-graph blocks and building blocks for training.
//
// # Overview
//
// This package contains:
//   - Blocks: Linear, Prelu
//   - Loss functions: MSELoss
//   - Utilities: Sequential, Block interface, Parameter
//   - Initialization: Xavier, Zeros, Constant, Normal
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ndtrain/nn"
//	    "github.com/born-ml/ndtrain/tensor"
//	)
//
//	func main() {
//	    root := tensor.NewManager(tensor.CPUDevice())
//	    defer root.Close()
//
//	    // Build a simple MLP
//	    block := nn.NewSequential(
//	        nn.NewLinear(784, 128),
//	        nn.NewPrelu(),
//	        nn.NewLinear(128, 10),
//	    )
//	    if err := nn.Initialize(block, root, 42); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Forward pass
//	    outputs, err := block.Forward(inputs)
//	}
//
// # Buffers
//
// Blocks allocate their outputs in the manager of the head input. Running a
// forward pass on inputs created in a scoped manager releases every
// intermediate buffer when the scope closes.
//
// # Backward Pass
//
// Linear, Prelu and Sequential implement Backwarder. Backward accumulates
// parameter gradients; an optim.Controller applies and clears them.
//
// # Persistence
//
// Linear, Prelu and Sequential implement ParameterStore. Each block writes an
// encoding version byte first; loading an unknown version fails with an
// InvalidArgumentError.
package nn
