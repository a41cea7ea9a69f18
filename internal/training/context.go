package training

import (
	"github.com/born-ml/ndtrain/internal/metrics"
	"github.com/born-ml/ndtrain/internal/tensor"
)

// Context is a disposable scope for one preprocessing, inference or
// postprocessing unit. Buffers created in Manager() are released by Close;
// nothing else is.
type Context struct {
	model   *Model
	device  tensor.Device
	manager *tensor.Manager
	metrics metrics.Sink
}

// Model returns the active model.
func (c *Context) Model() *Model {
	return c.model
}

// Device returns the active device.
func (c *Context) Device() tensor.Device {
	return c.device
}

// Manager returns the scope's manager.
func (c *Context) Manager() *tensor.Manager {
	return c.manager
}

// Metrics returns the metrics sink, or nil.
func (c *Context) Metrics() metrics.Sink {
	return c.metrics
}

// IsOpen reports whether the scope has not been closed.
func (c *Context) IsOpen() bool {
	return c.manager.IsOpen()
}

// Close releases the scope's manager. It is idempotent.
func (c *Context) Close() error {
	return c.manager.Close()
}
