// Package metrics collects named measurements recorded by the training
// engine. Sinks are fire-and-forget: they never fail the caller.
package metrics

import (
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UnitNano is the unit of durations recorded in nanoseconds.
const UnitNano = "nano"

// Sink receives measurements.
type Sink interface {
	AddMetric(name string, value float64, unit string)
}

// Since records the nanoseconds elapsed since start under name. A nil sink
// is ignored.
func Since(s Sink, name string, start time.Time) {
	if s == nil {
		return
	}
	s.AddMetric(name, float64(time.Since(start).Nanoseconds()), UnitNano)
}

// Metric is one recorded value.
type Metric struct {
	Value float64
	Unit  string
}

// Metrics is an in-memory Sink. It is safe for concurrent use.
type Metrics struct {
	mu     sync.RWMutex
	values map[string][]Metric
}

// New creates an empty store.
func New() *Metrics {
	return &Metrics{values: make(map[string][]Metric)}
}

// AddMetric appends a value under name.
func (m *Metrics) AddMetric(name string, value float64, unit string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = append(m.values[name], Metric{Value: value, Unit: unit})
}

// Has reports whether any value was recorded under name.
func (m *Metrics) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values[name]) > 0
}

// Names returns the recorded metric names in sorted order.
func (m *Metrics) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of values recorded under name.
func (m *Metrics) Count(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values[name])
}

// Get returns a copy of the values recorded under name.
func (m *Metrics) Get(name string) []Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.values[name])
}

// Latest returns the most recent value. ok is false when nothing was
// recorded.
func (m *Metrics) Latest(name string) (Metric, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.values[name]
	if len(values) == 0 {
		return Metric{}, false
	}
	return values[len(values)-1], true
}

// Mean returns the arithmetic mean, or NaN when nothing was recorded.
func (m *Metrics) Mean(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.values[name]
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v.Value
	}
	return sum / float64(len(values))
}

// Percentile returns the nearest-rank percentile p in [0, 100], or NaN when
// nothing was recorded.
func (m *Metrics) Percentile(name string, p float64) float64 {
	m.mu.RLock()
	values := make([]float64, len(m.values[name]))
	for i, v := range m.values[name] {
		values[i] = v.Value
	}
	m.mu.RUnlock()

	if len(values) == 0 {
		return math.NaN()
	}
	slices.Sort(values)
	p = min(max(p, 0), 100)
	idx := int(math.Ceil(p/100*float64(len(values)))) - 1
	return values[max(idx, 0)]
}

// Reset drops every recorded value.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
}

// LogSink writes every measurement as a zap debug entry.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

// AddMetric logs the measurement.
func (s *LogSink) AddMetric(name string, value float64, unit string) {
	s.log.Debug("metric",
		zap.String("name", name),
		zap.Float64("value", value),
		zap.String("unit", unit))
}

// Tee fans measurements out to several sinks. Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

func (t tee) AddMetric(name string, value float64, unit string) {
	for _, s := range t {
		s.AddMetric(name, value, unit)
	}
}

var (
	_ Sink = (*Metrics)(nil)
	_ Sink = (*LogSink)(nil)
)
