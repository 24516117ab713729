// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

// Executor runs workers: each scheduled function assembles a batch, calls
// the Multiplexer, fans the responses out, and then starts another batch or
// retires. Executor is an external collaborator (the batcher never invents
// its own goroutine-scheduling policy beyond the reference Pool below) —
// callers may plug in any scheduler (a metrics-instrumented pool, an
// in-process test scheduler, a priority queue) as long as Go does not
// delay submissions unboundedly.
type Executor interface {
	// Go schedules fn to run, without blocking the caller.
	Go(fn func())
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(fn func())

// Go implements Executor.
func (f ExecutorFunc) Go(fn func()) { f(fn) }

// inlineExecutor runs fn synchronously on the calling goroutine. Useful in
// single-threaded tests that need deterministic ordering between a
// Submit call and its worker's continuation.
type inlineExecutor struct{}

// NewInlineExecutor returns an Executor that runs every scheduled function
// synchronously, on the goroutine that calls Go. It is not suitable for
// production use: Submit then runs the whole worker — the Multiplexer call
// and every further batch that worker picks up — on the caller's goroutine
// before returning.
func NewInlineExecutor() Executor { return inlineExecutor{} }

func (inlineExecutor) Go(fn func()) { fn() }

// pool is a fixed-size goroutine pool Executor: a bounded task channel
// drained by a fixed number of long-lived goroutines, with an unbounded
// overflow path so Go never blocks its caller even if every pooled
// goroutine is momentarily busy. Adapted from the retrieved corpus's
// worker-pool library (pool.Fixed, a bounded-channel object pool);
// repurposed here from "lend/return an object" to "enqueue/run a task".
type pool struct {
	tasks chan func()
}

// NewPool creates an Executor backed by size long-lived goroutines.
// size must be >= 1; NewPool panics otherwise, matching the library's
// fail-fast posture on invalid construction parameters.
func NewPool(size int) Executor {
	if size < 1 {
		panic("batcher: pool size must be >= 1")
	}
	p := &pool{tasks: make(chan func(), size*64)}
	for range size {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	for fn := range p.tasks {
		fn()
	}
}

// Go schedules fn on the pool. If every pooled goroutine and the task
// buffer are saturated, Go spawns a detached goroutine rather than
// blocking the caller — a worker's continuation must never stall behind
// the Executor, since the packed counter is already mutated by the time Go
// is called.
func (p *pool) Go(fn func()) {
	select {
	case p.tasks <- fn:
	default:
		go fn()
	}
}
