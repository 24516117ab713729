// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error message for easy grepping in logs.
const Namespace = "batcher"

var (
	// ErrInvalidWorkerCount is returned by New when targetWorkerCount is
	// outside [1, ActiveWorkersMax].
	ErrInvalidWorkerCount = errors.New(Namespace + ": target worker count must be in [1, 4095]")

	// ErrContractViolation indicates a Multiplexer returned a response slice
	// whose length did not match the request slice it was given. Every
	// PendingResponse in the offending batch is resolved with an error that
	// wraps ErrContractViolation.
	ErrContractViolation = errors.New(Namespace + ": multiplexer returned a different number of responses than requests")

	// ErrMultiplexerPanicked indicates a Multiplexer.Execute call panicked.
	// The panic is recovered at the worker boundary and every
	// PendingResponse in the batch is resolved with an error that wraps
	// ErrMultiplexerPanicked; the worker itself survives and continues.
	ErrMultiplexerPanicked = errors.New(Namespace + ": multiplexer panicked")
)

// batchError tags ErrContractViolation/ErrMultiplexerPanicked with the size
// of the offending batch and a snapshot of the worker/queue counters at the
// time of failure, without exposing the underlying atomic state directly.
type batchError struct {
	err       error
	batchSize int
	active    int
	requests  int
}

func newBatchError(err error, batchSize, active, requests int) error {
	if err == nil {
		return nil
	}
	return &batchError{err: err, batchSize: batchSize, active: active, requests: requests}
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%s (batch_size=%d active_workers=%d request_count=%d)",
		e.err.Error(), e.batchSize, e.active, e.requests)
}

func (e *batchError) Unwrap() error { return e.err }

// BatchErrorInfo exposes correlation metadata for a batch-level failure.
type BatchErrorInfo interface {
	error
	Unwrap() error
	BatchSize() int
}

func (e *batchError) BatchSize() int { return e.batchSize }

// ExtractBatchSize returns the batch size recorded on err, if any.
func ExtractBatchSize(err error) (int, bool) {
	var info BatchErrorInfo
	if errors.As(err, &info) {
		return info.BatchSize(), true
	}
	return 0, false
}
