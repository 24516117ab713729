// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import (
	"context"
	"sync"
)

// PendingResponse is a one-shot completable future pairing a caller's
// request with its eventual response. A PendingResponse is created by
// Submit, owned by exactly one in-flight batch-assembly step at a time
// (the seeding worker or a FIFO slot), and resolved exactly once by the
// worker that executes its batch.
type PendingResponse[Req, Resp any] struct {
	request Req

	once     sync.Once
	done     chan struct{}
	response Resp
	err      error
}

func newPendingResponse[Req, Resp any](req Req) *PendingResponse[Req, Resp] {
	return &PendingResponse[Req, Resp]{
		request: req,
		done:    make(chan struct{}),
	}
}

// Request returns the request this handle was created for.
func (p *PendingResponse[Req, Resp]) Request() Req {
	return p.request
}

// setResponse resolves the handle with a successful response. Returns false
// if the handle was already resolved.
func (p *PendingResponse[Req, Resp]) setResponse(v Resp) bool {
	resolved := false
	p.once.Do(func() {
		p.response = v
		close(p.done)
		resolved = true
	})
	return resolved
}

// setError resolves the handle with an error. Returns false if the handle
// was already resolved.
func (p *PendingResponse[Req, Resp]) setError(err error) bool {
	resolved := false
	p.once.Do(func() {
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}

// Done returns a channel that is closed exactly once, when the handle
// resolves. It never blocks and never allocates beyond handle creation.
func (p *PendingResponse[Req, Resp]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the handle resolves or ctx is done, whichever happens
// first. Waiting on ctx never resolves the handle and never cancels the
// in-flight batch: per the design's non-goals, cancellation does not
// propagate into work already handed to the Multiplexer.
func (p *PendingResponse[Req, Resp]) Wait(ctx context.Context) (Resp, error) {
	select {
	case <-p.done:
		return p.response, p.err
	case <-ctx.Done():
		var zero Resp
		return zero, ctx.Err()
	}
}
