// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import "context"

// Multiplexer executes a batch of requests in one call and returns exactly
// len(requests) responses, positionally aligned (response[i] answers
// requests[i]). Multiplexer is the user-supplied collaborator the whole
// package exists to coalesce calls into — typically a remote cache's
// batched-get RPC, a bulk database write, or similar.
//
// Execute's error is propagated verbatim to every PendingResponse in the
// batch; a length mismatch between requests and the returned responses is
// treated as a programmer error (ErrContractViolation) rather than
// forwarded as-is.
type Multiplexer[Req, Resp any] interface {
	Execute(ctx context.Context, requests []Req) ([]Resp, error)
}

// MultiplexerFunc adapts a plain function to the Multiplexer interface.
type MultiplexerFunc[Req, Resp any] func(ctx context.Context, requests []Req) ([]Resp, error)

// Execute implements Multiplexer.
func (f MultiplexerFunc[Req, Resp]) Execute(ctx context.Context, requests []Req) ([]Resp, error) {
	return f(ctx, requests)
}

// IdentityMultiplexer returns a Multiplexer that echoes each request back
// as its own response, useful for exercising the batcher's coalescing and
// fan-out behavior independent of any real downstream dependency.
func IdentityMultiplexer[T any]() Multiplexer[T, T] {
	return MultiplexerFunc[T, T](func(_ context.Context, requests []T) ([]T, error) {
		out := make([]T, len(requests))
		copy(out, requests)
		return out, nil
	})
}
