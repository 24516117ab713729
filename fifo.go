// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// concurrentFifo is a bounded, fixed-capacity multi-producer/multi-consumer
// FIFO of *PendingResponse[Req, Resp] pointers.
//
// Capacity is rounded up to a power of two. appendIndex and takeIndex are
// separate monotonically increasing atomic counters, masked by capacity-1 to
// derive a slot position; size is a third atomic counter used purely for
// back-pressure (full/empty detection) ahead of claiming an index.
//
// Each slot's occupancy is carried by the slot's data pointer itself: a nil
// pointer means empty. A single goroutine ever holds write access to a
// given slot at a time, because an index is claimed via fetch-add before
// the slot is touched — so the pointer field needs to be atomic only for
// cross-goroutine visibility, not for mutual exclusion. That pointer uses
// sync/atomic's generic atomic.Pointer rather than this codebase's own
// atomix wrappers: atomix has no GC-aware pointer type (its Uintptr variant
// stores raw integers, which would hide the pointer from the garbage
// collector), and that's a correctness requirement here, not a style
// preference — see DESIGN.md.
type concurrentFifo[Req, Resp any] struct {
	_           pad
	appendIndex atomix.Uint64
	_           pad
	takeIndex   atomix.Uint64
	_           pad
	size        atomix.Int64
	_           pad
	slots       []fifoSlot[Req, Resp]
	capacity    uint64
	mask        uint64
}

type fifoSlot[Req, Resp any] struct {
	data atomic.Pointer[PendingResponse[Req, Resp]]
	_    padPtr
}

// newConcurrentFifo creates a queue with the given capacity, rounded up to
// the next power of two.
func newConcurrentFifo[Req, Resp any](capacity int) *concurrentFifo[Req, Resp] {
	if capacity < 1 {
		panic("batcher: fifo capacity must be >= 1")
	}
	n := uint64(roundToPow2(capacity))
	return &concurrentFifo[Req, Resp]{
		slots:    make([]fifoSlot[Req, Resp], n),
		capacity: n,
		mask:     n - 1,
	}
}

// cap returns the queue's (rounded-up) capacity.
func (q *concurrentFifo[Req, Resp]) cap() int {
	return int(q.capacity)
}

// lenHint returns a best-effort, possibly stale, count of published
// elements. Intended for diagnostics (String()) and metrics only.
func (q *concurrentFifo[Req, Resp]) lenHint() int {
	return int(q.size.LoadAcquire())
}

// tryAppend attempts to publish elem. Returns iox.ErrWouldBlock if the
// queue is full, following this codebase's own ErrWouldBlock convention
// for "cannot proceed immediately, retry later."
func (q *concurrentFifo[Req, Resp]) tryAppend(elem *PendingResponse[Req, Resp]) error {
	for {
		cur := q.size.LoadAcquire()
		if cur >= int64(q.capacity) {
			return iox.ErrWouldBlock
		}
		if q.size.CompareAndSwapAcqRel(cur, cur+1) {
			break
		}
	}

	i := q.appendIndex.AddAcqRel(1) - 1
	slot := &q.slots[i&q.mask]

	sw := spin.Wait{}
	for slot.data.Load() != nil {
		sw.Once()
	}
	slot.data.Store(elem)
	return nil
}

// take claims the next element. The caller must have already observed
// evidence that an element is, or will shortly be, published (a decremented
// requestCount, or direct ownership of a just-enqueued item) — otherwise
// this spins indefinitely, by design (see SPEC_FULL.md §4.2).
func (q *concurrentFifo[Req, Resp]) take() *PendingResponse[Req, Resp] {
	j := q.takeIndex.AddAcqRel(1) - 1
	slot := &q.slots[j&q.mask]

	sw := spin.Wait{}
	var elem *PendingResponse[Req, Resp]
	for {
		elem = slot.data.Load()
		if elem != nil {
			break
		}
		sw.Once()
	}
	slot.data.Store(nil)
	q.size.AddAcqRel(-1)
	return elem
}

// roundToPow2 rounds n up to the next power of 2. Grounded on the teacher
// library's roundToPow2 helper (options.go).
func roundToPow2(n int) int {
	if n < 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache-line padding to prevent false sharing between adjacent
// atomic counters, following the teacher library's layout discipline.
type pad [64]byte

// padPtr pads a single-pointer-sized field up to a cache line.
type padPtr [64 - 8]byte
