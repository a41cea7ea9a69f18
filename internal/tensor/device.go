package tensor

import "fmt"

// DeviceType is the kind of compute target.
type DeviceType int

// Supported device types.
const (
	CPU DeviceType = iota
	GPU
)

// Device identifies one compute target. The zero value is the first CPU.
type Device struct {
	Type DeviceType
	ID   int
}

// CPUDevice returns the CPU device.
func CPUDevice() Device {
	return Device{Type: CPU}
}

// GPUDevice returns the GPU with the given ordinal.
func GPUDevice(id int) Device {
	return Device{Type: GPU, ID: id}
}

// String returns a human-readable device name, e.g. "cpu()" or "gpu(1)".
func (d Device) String() string {
	switch d.Type {
	case CPU:
		return "cpu()"
	case GPU:
		return fmt.Sprintf("gpu(%d)", d.ID)
	default:
		return "unknown()"
	}
}
