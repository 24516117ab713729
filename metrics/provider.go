// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics defines the observability surface the batcher package
// reports through, adapted from the retrieved corpus's worker-pool metrics
// provider: a minimal, stable interface over instrument construction
// rather than a concrete metrics backend, so the batcher never forces a
// choice of Prometheus, OpenTelemetry, or anything else on its callers.
package metrics

// Provider constructs instruments used to record metrics. Implementations
// must be safe for concurrent use.
//
// Keep this interface minimal and stable. If new capabilities are needed
// later, add separate optional interfaces rather than expanding this
// surface.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts. Methods must be safe for concurrent
// use.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that can move up or down (e.g., current
// active worker count). Methods must be safe for concurrent use.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements (e.g., batch
// sizes). Methods must be safe for concurrent use.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata. It's advisory
// only; implementations may ignore it entirely.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "requests").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}
