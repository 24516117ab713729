// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import (
	"log/slog"

	"code.hybscloud.com/batcher/metrics"
)

// Defaults fixed by the design (SPEC_FULL.md §6). Overridable per instance
// via Option, primarily so tests can exercise queue-full and large-batch
// behavior without a 2^20-slot ring buffer.
const (
	DefaultQueueCapacity  = 1 << 20
	DefaultBatchSize      = 4095
	DefaultQueueFullSleep = 100 // milliseconds
)

type config struct {
	queueCapacity  int
	batchSize      int
	queueFullSleep int // milliseconds
	metrics        metrics.Provider
	logger         *slog.Logger
}

func defaultConfig() config {
	return config{
		queueCapacity:  DefaultQueueCapacity,
		batchSize:      DefaultBatchSize,
		queueFullSleep: DefaultQueueFullSleep,
		metrics:        metrics.Noop(),
		logger:         nil,
	}
}

// Option configures a Batcher at construction time, following this
// codebase's teacher library's fluent Builder pattern, adapted from
// "select an algorithm variant" to "tune a single batcher instance".
type Option func(*config)

// WithQueueCapacity overrides the internal FIFO's capacity (rounded up to
// a power of two). Default DefaultQueueCapacity.
func WithQueueCapacity(capacity int) Option {
	return func(c *config) { c.queueCapacity = capacity }
}

// WithBatchSize overrides the maximum number of additional items a worker
// pulls from the queue per batch (the seed request is always included on
// top of this). Default DefaultBatchSize. Not range-checked here; callers
// are expected to pass sane values, same as the other constructor
// preconditions in SPEC_FULL.md §6.
func WithBatchSize(n int) Option {
	return func(c *config) { c.batchSize = n }
}

// WithQueueFullSleep overrides the cooperative backoff duration, in
// milliseconds, a producer sleeps for after a failed tryAppend. Default
// DefaultQueueFullSleep.
func WithQueueFullSleep(ms int) Option {
	return func(c *config) { c.queueFullSleep = ms }
}

// WithMetrics attaches a metrics.Provider the Batcher reports
// active-worker, queue-depth, and batch-size observations through. Default
// metrics.Noop().
func WithMetrics(p metrics.Provider) Option {
	return func(c *config) { c.metrics = p }
}

// WithLogger attaches a logger used for exceptional events only (contract
// violations, recovered multiplexer panics). Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}
