// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides native buffers organized in an ownership tree.
//
// # Overview
//
// Every buffer (Handle) is owned by exactly one Manager. Managers form a
// tree: closing a manager closes its children first, then frees every
// buffer it owns. Reading a buffer after its manager closed returns a
// UseAfterFreeError.
//
// # Basic Usage
//
//	import "github.com/born-ml/ndtrain/tensor"
//
//	func main() {
//	    root := tensor.NewManager(tensor.CPUDevice())
//	    defer root.Close()
//
//	    err := tensor.WithSubManager(root, func(m *tensor.Manager) error {
//	        x, err := m.FromFloat32s([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	        if err != nil {
//	            return err
//	        }
//	        values, _ := x.Float32s()
//	        fmt.Println(values)
//	        return nil
//	    })
//	}
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//
// # Ownership Transfer
//
// Manager.Attach moves a handle between managers. A handle attached to a
// longer-lived manager survives the close of its original scope.
//
// # Leak Detection
//
// With TrackLeaks(true), every open root manager is recorded. CheckLeaks
// logs a warning for each one still open, closes it and returns the
// warnings.
package tensor
