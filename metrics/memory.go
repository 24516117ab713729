// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// MemoryProvider is a simple in-memory Provider, concurrency-safe and
// intended for tests: assert on batcher.active_workers,
// batcher.batch_size, and similar instruments without standing up a real
// metrics backend. Instruments are created on demand by name and reused.
//
// Grounded on the retrieved corpus's worker-pool metrics.BasicProvider;
// adapted to this package's narrower InstrumentConfig (no attributes) and
// renamed to avoid colliding with that library's own export.
type MemoryProvider struct {
	mu         sync.RWMutex
	counters   map[string]*MemoryCounter
	updowns    map[string]*MemoryUpDownCounter
	histograms map[string]*MemoryHistogram
}

// Memory constructs a new MemoryProvider.
func Memory() *MemoryProvider {
	return &MemoryProvider{
		counters:   make(map[string]*MemoryCounter),
		updowns:    make(map[string]*MemoryUpDownCounter),
		histograms: make(map[string]*MemoryHistogram),
	}
}

func (p *MemoryProvider) Counter(name string, _ ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = &MemoryCounter{}
		p.counters[name] = c
	}
	return c
}

func (p *MemoryProvider) UpDownCounter(name string, _ ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.updowns[name]
	if !ok {
		u = &MemoryUpDownCounter{}
		p.updowns[name] = u
	}
	return u
}

func (p *MemoryProvider) Histogram(name string, _ ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = &MemoryHistogram{min: math.Inf(1), max: math.Inf(-1)}
		p.histograms[name] = h
	}
	return h
}

// CounterValue returns the current value of a named counter, or 0 if it
// was never created.
func (p *MemoryProvider) CounterValue(name string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if c, ok := p.counters[name]; ok {
		return c.Snapshot()
	}
	return 0
}

// UpDownValue returns the current value of a named up/down counter, or 0
// if it was never created.
func (p *MemoryProvider) UpDownValue(name string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.updowns[name]; ok {
		return u.Snapshot()
	}
	return 0
}

// HistogramSnapshot returns a snapshot of a named histogram, or the zero
// HistSnapshot if it was never created.
func (p *MemoryProvider) HistogramSnapshot(name string) HistSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if h, ok := p.histograms[name]; ok {
		return h.Snapshot()
	}
	return HistSnapshot{}
}

// MemoryCounter is a thread-safe monotonic counter.
type MemoryCounter struct{ val atomic.Int64 }

func (c *MemoryCounter) Add(n int64)     { c.val.Add(n) }
func (c *MemoryCounter) Snapshot() int64 { return c.val.Load() }

// MemoryUpDownCounter is a thread-safe up/down counter.
type MemoryUpDownCounter struct{ val atomic.Int64 }

func (u *MemoryUpDownCounter) Add(n int64)     { u.val.Add(n) }
func (u *MemoryUpDownCounter) Snapshot() int64 { return u.val.Load() }

// MemoryHistogram is a thread-safe histogram tracking count, sum, min, and
// max. It does not maintain buckets; it's a lightweight aggregator
// sufficient for assertions in tests.
type MemoryHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

func (h *MemoryHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		h.min, h.max = v, v
	} else {
		if v < h.min {
			h.min = v
		}
		if v > h.max {
			h.max = v
		}
	}
	h.count++
	h.sum += v
}

// HistSnapshot is an immutable snapshot of a MemoryHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (h *MemoryHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	mean := 0.0
	if h.count > 0 {
		mean = h.sum / float64(h.count)
	}
	return HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max, Mean: mean}
}
