// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"code.hybscloud.com/batcher/metrics"
)

// Batcher coordinates a pool of up to targetWorkerCount workers that
// transparently coalesce concurrently Submit-ed requests into batches
// handed to a single Multiplexer. See package doc and SPEC_FULL.md for the
// full protocol; this type is the coordinator described there.
type Batcher[Req, Resp any] struct {
	executor    Executor
	multiplexer Multiplexer[Req, Resp]
	target      int

	counter packedCounter
	queue   *concurrentFifo[Req, Resp]

	cfg config

	activeWorkersGauge metrics.UpDownCounter
	queueDepthGauge    metrics.UpDownCounter
	batchSizeHist      metrics.Histogram
	requestsTotal      metrics.Counter
	errorsTotal        metrics.Counter
}

// New constructs a Batcher. targetWorkerCount must be in [1,
// ActiveWorkersMax]; executor must accept repeated Go calls without
// unbounded delay; multiplexer.Execute must return exactly len(requests)
// responses on success.
func New[Req, Resp any](executor Executor, multiplexer Multiplexer[Req, Resp], targetWorkerCount int, opts ...Option) (*Batcher[Req, Resp], error) {
	if targetWorkerCount < 1 || targetWorkerCount > ActiveWorkersMax {
		return nil, ErrInvalidWorkerCount
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Batcher[Req, Resp]{
		executor:    executor,
		multiplexer: multiplexer,
		target:      targetWorkerCount,
		queue:       newConcurrentFifo[Req, Resp](cfg.queueCapacity),
		cfg:         cfg,

		activeWorkersGauge: cfg.metrics.UpDownCounter("batcher.active_workers"),
		queueDepthGauge:    cfg.metrics.UpDownCounter("batcher.queue_depth"),
		batchSizeHist:      cfg.metrics.Histogram("batcher.batch_size", metrics.WithUnit("1")),
		requestsTotal:      cfg.metrics.Counter("batcher.requests_total"),
		errorsTotal:        cfg.metrics.Counter("batcher.errors_total"),
	}
	return b, nil
}

// Submit hands req to the batcher and returns immediately with a future
// response. ctx bounds only the (rare) cooperative sleep during queue-full
// backoff — it is never propagated into an in-flight batch (see
// SPEC_FULL.md §5/§9). Wait on the returned handle takes its own ctx.
func (b *Batcher[Req, Resp]) Submit(ctx context.Context, req Req) *PendingResponse[Req, Resp] {
	pr := newPendingResponse[Req, Resp](req)
	b.requestsTotal.Add(1)

	// Phase 1: fast path — become a worker directly, seeded with pr.
	for {
		snap := b.counter.snapshot()
		if snap.active >= b.target {
			break
		}
		if b.counter.tryReserveWorker(snap, b.target) {
			b.activeWorkersGauge.Add(1)
			b.executeBatch(pr)
			return pr
		}
	}

	// Phase 2: enqueue, backing off while the queue is momentarily full.
	for b.queue.tryAppend(pr) != nil {
		select {
		case <-time.After(time.Duration(b.cfg.queueFullSleep) * time.Millisecond):
		case <-ctx.Done():
			pr.setError(ctx.Err())
			return pr
		}
	}
	b.queueDepthGauge.Add(1)

	// Phase 3: ensure a worker will pick pr up. If every worker slot is
	// already taken, a peer worker's continueOrRetire will eventually
	// reach it. Otherwise this goroutine reserves a worker slot itself and
	// seeds a batch with whatever is at the head of the queue — not
	// necessarily pr, but correctness does not depend on which item this
	// goroutine's own pr becomes the seed of (see SPEC_FULL.md §4.4).
	for {
		snap := b.counter.snapshot()
		if snap.active >= b.target {
			if b.counter.tryIncrementRequests(snap, b.target) {
				return pr
			}
			continue
		}
		if b.counter.tryReserveWorkerKeepRequests(snap, b.target) {
			b.activeWorkersGauge.Add(1)
			item := b.queue.take()
			b.queueDepthGauge.Add(-1)
			b.executeBatch(item)
			return pr
		}
	}
}

// executeBatch schedules a worker on the Executor, seeded with seed. The
// worker assembles a batch, runs it through the Multiplexer, fans out
// responses, and either continues with another batch or retires its slot
// — all on the scheduled goroutine, never blocking executeBatch's caller.
func (b *Batcher[Req, Resp]) executeBatch(seed *PendingResponse[Req, Resp]) {
	b.executor.Go(func() {
		cur := seed
		for {
			batch := b.populateBatch(cur)
			b.batchSizeHist.Record(float64(len(batch)))
			b.dispatch(batch)

			next, ok := b.continueOrRetire()
			if !ok {
				return
			}
			cur = next
		}
	})
}

// populateBatch builds a batch starting from seed, pulling up to
// cfg.batchSize additional items reserved from the queue via the packed
// counter. Resulting batch size is in [1, cfg.batchSize+1].
func (b *Batcher[Req, Resp]) populateBatch(seed *PendingResponse[Req, Resp]) []*PendingResponse[Req, Resp] {
	batch := make([]*PendingResponse[Req, Resp], 0, 1+b.cfg.batchSize)
	batch = append(batch, seed)

	for {
		snap := b.counter.snapshot()
		if snap.requests == 0 {
			return batch
		}
		toTake := min(b.cfg.batchSize, snap.requests)
		if !b.counter.tryDecrementRequests(snap, toTake) {
			continue
		}
		for range toTake {
			item := b.queue.take()
			b.queueDepthGauge.Add(-1)
			batch = append(batch, item)
		}
		return batch
	}
}

// dispatch invokes the multiplexer once for batch and fans the result back
// into every PendingResponse, positionally aligned. It never panics or
// unwinds past this call: multiplexer errors and panics, and response
// count mismatches, all resolve every PendingResponse in batch with an
// error instead.
func (b *Batcher[Req, Resp]) dispatch(batch []*PendingResponse[Req, Resp]) {
	requests := make([]Req, len(batch))
	for i, pr := range batch {
		requests[i] = pr.Request()
	}

	responses, err := b.callMultiplexer(context.Background(), requests)
	if err != nil {
		b.errorsTotal.Add(1)
		if errors.Is(err, ErrMultiplexerPanicked) {
			snap := b.counter.snapshot()
			err = newBatchError(err, len(batch), snap.active, snap.requests)
			b.logFailure("multiplexer panicked", len(batch), err)
		}
		for _, pr := range batch {
			pr.setError(err)
		}
		return
	}

	if len(responses) != len(requests) {
		b.errorsTotal.Add(1)
		snap := b.counter.snapshot()
		cerr := newBatchError(ErrContractViolation, len(batch), snap.active, snap.requests)
		b.logFailure("response count mismatch", len(batch), cerr)
		for _, pr := range batch {
			pr.setError(cerr)
		}
		return
	}

	for i, pr := range batch {
		pr.setResponse(responses[i])
	}
}

// callMultiplexer invokes the Multiplexer, recovering a panic into
// ErrMultiplexerPanicked so a misbehaving collaborator cannot take down a
// worker goroutine.
func (b *Batcher[Req, Resp]) callMultiplexer(ctx context.Context, requests []Req) (responses []Resp, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMultiplexerPanicked, r)
		}
	}()
	return b.multiplexer.Execute(ctx, requests)
}

// continueOrRetire decides whether the calling worker seeds another batch
// or retires its slot. It only retires when requestCount == 0 at the CAS
// instant, preserving the no-starvation invariant.
func (b *Batcher[Req, Resp]) continueOrRetire() (*PendingResponse[Req, Resp], bool) {
	for {
		snap := b.counter.snapshot()
		if snap.requests > 0 {
			if b.counter.tryDecrementRequests(snap, 1) {
				item := b.queue.take()
				b.queueDepthGauge.Add(-1)
				return item, true
			}
			continue
		}
		if b.counter.tryRetireWorker(snap) {
			b.activeWorkersGauge.Add(-1)
			return nil, false
		}
	}
}

func (b *Batcher[Req, Resp]) logFailure(msg string, batchSize int, err error) {
	if b.cfg.logger == nil {
		return
	}
	b.cfg.logger.Warn(msg, slog.Int("batch_size", batchSize), slog.String("error", err.Error()))
}

// String returns a human-readable snapshot of the batcher's internal
// counters, suitable for debugging and logging.
func (b *Batcher[Req, Resp]) String() string {
	snap := b.counter.snapshot()
	return fmt.Sprintf("activeWorkers=%d, requestCount=%d\nqueue=%d/%d",
		snap.active, snap.requests, b.queue.lenHint(), b.queue.cap())
}
