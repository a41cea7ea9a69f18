// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/ndtrain/internal/tensor"
)

// DType is a constraint for buffer element types.
// Supported types: float32, float64, int32, int64, uint8.
type DType = tensor.DType

// DataType represents the element type of a buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// DeviceType distinguishes compute targets.
type DeviceType = tensor.DeviceType

// Device type constants.
const (
	CPU DeviceType = tensor.CPU
	GPU DeviceType = tensor.GPU
)

// Device identifies one compute target.
type Device = tensor.Device

// Shape represents the dimensions of a buffer.
// Example: Shape{2, 3, 4} represents a 3D buffer with dimensions 2×3×4.
type Shape = tensor.Shape

// Handle is one native buffer owned by a Manager.
type Handle = tensor.Handle

// Manager owns buffers and child managers.
type Manager = tensor.Manager

// NDList is an ordered list of handles.
type NDList = tensor.NDList

// LeakWarning describes a root manager found open by CheckLeaks.
type LeakWarning = tensor.LeakWarning

// CPUDevice returns the CPU device.
func CPUDevice() Device {
	return tensor.CPUDevice()
}

// GPUDevice returns the GPU with the given ordinal.
func GPUDevice(id int) Device {
	return tensor.GPUDevice(id)
}

// NewManager creates an open root manager.
func NewManager(device Device) *Manager {
	return tensor.NewManager(device)
}

// WithSubManager runs fn with a fresh child of parent and closes the child
// on every path.
func WithSubManager(parent *Manager, fn func(m *Manager) error) error {
	return tensor.WithSubManager(parent, fn)
}

// NewNDList creates a list holding handles.
func NewNDList(handles ...*Handle) *NDList {
	return tensor.NewNDList(handles...)
}

// TrackLeaks enables or disables root manager tracking.
func TrackLeaks(enabled bool) {
	tensor.TrackLeaks(enabled)
}

// CheckLeaks closes every tracked root manager that is still open and
// returns a warning for each.
func CheckLeaks() []LeakWarning {
	return tensor.CheckLeaks()
}
