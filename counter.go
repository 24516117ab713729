// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import "code.hybscloud.com/atomix"

const (
	// requestCountBits is the width of the requestCount sub-counter.
	requestCountBits = 20
	requestCountMask = uint64(1)<<requestCountBits - 1

	// activeWorkersShift/Bits give activeWorkers the next 12 bits, for a
	// combined 32 meaningful bits packed into the low half of a 64-bit
	// word (see REDESIGN FLAGS in SPEC_FULL.md: the source specifies a
	// bare 32-bit word, which this codebase's atomix package does not
	// expose a CAS-capable type for; the high 32 bits of the atomix.Uint64
	// backing word are reserved-zero and never read or written).
	activeWorkersShift = requestCountBits
	activeWorkersBits  = 12
	activeWorkersMask  = uint64(1)<<activeWorkersBits - 1

	// ActiveWorkersMax is the largest targetWorkerCount this package
	// supports, fixed by the 12 bits allotted to activeWorkers.
	ActiveWorkersMax = int(activeWorkersMask)

	oneRequest      = uint64(1)
	oneActiveWorker = uint64(1) << activeWorkersShift
)

// counterSnapshot is an immutable observation of a packedCounter's word,
// retained so a failed CAS can be retried against a freshly re-read word
// without losing the caller's intent.
type counterSnapshot struct {
	raw      uint64
	active   int
	requests int
}

// packedCounter holds (activeWorkers, requestCount) in a single atomic
// word so both can be inspected and updated together by one CAS. Splitting
// this into two independent atomics would allow a producer to observe
// active==target on one word and a worker to retire on the other before
// the producer increments requestCount, leaving requestCount > 0 with
// active == 0 — see SPEC_FULL.md §9.
type packedCounter struct {
	_    pad
	word atomix.Uint64
	_    pad
}

func unpack(raw uint64) (active, requests int) {
	requests = int(raw & requestCountMask)
	active = int((raw >> activeWorkersShift) & activeWorkersMask)
	return active, requests
}

// snapshot returns the current (active, requests) observation.
func (c *packedCounter) snapshot() counterSnapshot {
	raw := c.word.LoadAcquire()
	active, requests := unpack(raw)
	return counterSnapshot{raw: raw, active: active, requests: requests}
}

// tryReserveWorker CASes active -> active+1, provided snap.active < target.
// Callers must re-snapshot and retry on failure.
func (c *packedCounter) tryReserveWorker(snap counterSnapshot, target int) bool {
	if snap.active >= target {
		return false
	}
	return c.word.CompareAndSwapAcqRel(snap.raw, snap.raw+oneActiveWorker)
}

// tryReserveWorkerKeepRequests CASes active -> active+1 without touching
// requestCount. Used when a producer discovers, after enqueueing, that the
// active worker count has dipped below target.
func (c *packedCounter) tryReserveWorkerKeepRequests(snap counterSnapshot, target int) bool {
	if snap.active >= target {
		return false
	}
	return c.word.CompareAndSwapAcqRel(snap.raw, snap.raw+oneActiveWorker)
}

// tryIncrementRequests CASes requestCount -> requestCount+1, provided
// snap.active == target (so it cannot race with a worker retiring down from
// target).
func (c *packedCounter) tryIncrementRequests(snap counterSnapshot, target int) bool {
	if snap.active != target {
		return false
	}
	return c.word.CompareAndSwapAcqRel(snap.raw, snap.raw+oneRequest)
}

// tryDecrementRequests CASes requestCount -> requestCount-n, provided
// snap.requests >= n. Used by a worker reserving n queued items for its
// batch.
func (c *packedCounter) tryDecrementRequests(snap counterSnapshot, n int) bool {
	if snap.requests < n {
		return false
	}
	return c.word.CompareAndSwapAcqRel(snap.raw, snap.raw-uint64(n))
}

// tryRetireWorker CASes active -> active-1, provided snap.requests == 0
// (otherwise retiring would starve queued requests).
func (c *packedCounter) tryRetireWorker(snap counterSnapshot) bool {
	if snap.requests != 0 {
		return false
	}
	return c.word.CompareAndSwapAcqRel(snap.raw, snap.raw-oneActiveWorker)
}
