// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package batcher provides a concurrent request batcher: callers submit one
// request at a time and receive a future response, while a small pool of
// workers transparently coalesces concurrently in-flight requests into
// batches before handing them to a user-supplied Multiplexer.
//
// # Quick Start
//
//	mux := batcher.MultiplexerFunc[string, int](func(ctx context.Context, reqs []string) ([]int, error) {
//	    out := make([]int, len(reqs))
//	    for i, r := range reqs {
//	        out[i] = len(r) // one round-trip for the whole batch
//	    }
//	    return out, nil
//	})
//
//	b, err := batcher.New[string, int](batcher.NewPool(4), mux, 4)
//	if err != nil {
//	    // target worker count out of range
//	}
//
//	pr := b.Submit(context.Background(), "hello")
//	n, err := pr.Wait(context.Background())
//
// # Why batch at all
//
// When the per-call cost of a downstream dependency (a remote cache RPC, a
// disk flush, a batched database driver call) is dominated by fixed
// overhead rather than payload size, coalescing many logical calls into one
// physical call multiplies throughput. batcher hides that coalescing behind
// the same unary interface every caller already expects.
//
// # Concurrency model
//
// Every shared coordination point — the packed worker/queue-depth counter
// and the bounded FIFO's append/take indices — is a lock-free atomic word.
// Producers (callers of Submit) never block on a worker; the only blocking
// path is a bounded, cancellable sleep when the internal queue is
// momentarily full. See the design notes in SPEC_FULL.md §9 for the
// joint-CAS rationale behind the packed counter.
//
// # Worker lifecycle
//
//	RESERVED -> BATCHING -> EXECUTING -> DISPATCHING -> BATCHING (continue)
//	                                                  -> RETIRED (terminal)
//
// A worker assembles a batch from the seed request plus whatever is
// queued, invokes the Multiplexer once, fans responses back out
// positionally, then either grabs another batch or retires its slot.
//
// # Ordering
//
// Within one batch, response i resolves request i. Across batches, no
// ordering is guaranteed: two requests submitted back to back may land in
// the same batch or different ones, and may resolve in either order.
//
// # Failure handling
//
// A Multiplexer error (or panic) resolves every PendingResponse in that
// batch with the error; the worker is not killed and continues serving
// later batches. A response-count mismatch is treated as a contract
// violation and handled the same way. See Err* sentinels in errors.go.
package batcher
