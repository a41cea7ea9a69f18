// Package engine describes the compute runtime: its version, the operators
// it implements and the devices it can address.
package engine

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/born-ml/ndtrain/internal/errdefs"
	"github.com/born-ml/ndtrain/internal/tensor"
	"golang.org/x/sys/cpu"
)

// Version components of the runtime.
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Version returns the runtime version encoded as major*10000 + minor*100 + patch.
func Version() int {
	return VersionMajor*10000 + VersionMinor*100 + VersionPatch
}

// VersionString returns the version as "major.minor.patch".
func VersionString() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

var opNames = []string{
	"adam_update",
	"linear",
	"linear_backward",
	"mse_loss",
	"prelu",
	"prelu_backward",
	"sgd_update",
	"stack_rows",
}

// OpNames returns the operators implemented by the runtime, sorted.
func OpNames() []string {
	return slices.Clone(opNames)
}

// GPUInfo describes one accelerator supplied by the caller.
type GPUInfo struct {
	ID          int
	Name        string
	FreeMemory  uint64
	TotalMemory uint64
}

// Engine is a fixed view of the addressable devices. The CPU is always
// present; accelerators are registered by whoever enumerated them.
type Engine struct {
	gpus []GPUInfo
}

// New creates an engine over gpus. IDs must be unique and non-negative.
func New(gpus ...GPUInfo) (*Engine, error) {
	seen := make(map[int]bool, len(gpus))
	for _, g := range gpus {
		if g.ID < 0 {
			return nil, errdefs.InvalidArgument("gpu", g.ID, "device id must not be negative")
		}
		if seen[g.ID] {
			return nil, errdefs.InvalidArgument("gpu", g.ID, "duplicate device id")
		}
		seen[g.ID] = true
	}
	sorted := slices.Clone(gpus)
	slices.SortFunc(sorted, func(a, b GPUInfo) int { return a.ID - b.ID })
	return &Engine{gpus: sorted}, nil
}

// Default returns a CPU-only engine.
func Default() *Engine {
	return &Engine{}
}

// GPUCount returns the number of registered accelerators.
func (e *Engine) GPUCount() int {
	return len(e.gpus)
}

// Devices returns the CPU followed by every accelerator.
func (e *Engine) Devices() []tensor.Device {
	devices := make([]tensor.Device, 0, len(e.gpus)+1)
	devices = append(devices, tensor.CPUDevice())
	for _, g := range e.gpus {
		devices = append(devices, tensor.GPUDevice(g.ID))
	}
	return devices
}

// GPUMemory returns free and total memory of an accelerator. Asking for
// the CPU, or for an unregistered accelerator, is an InvalidArgumentError.
func (e *Engine) GPUMemory(device tensor.Device) (free, total uint64, err error) {
	if device.Type != tensor.GPU {
		return 0, 0, errdefs.InvalidArgument("device", device, "GPU memory is only reported for GPU devices")
	}
	for _, g := range e.gpus {
		if g.ID == device.ID {
			return g.FreeMemory, g.TotalMemory, nil
		}
	}
	return 0, 0, errdefs.InvalidArgument("device", device, "no such GPU (%d registered)", len(e.gpus))
}

// GPU returns the description of accelerator id.
func (e *Engine) GPU(id int) (GPUInfo, bool) {
	for _, g := range e.gpus {
		if g.ID == id {
			return g, true
		}
	}
	return GPUInfo{}, false
}

// CPUFeatures returns the SIMD extensions detected on this host.
func CPUFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}

	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
		add(cpu.ARM64.HasSVE2, "sve2")
	}
	return features
}
