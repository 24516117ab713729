// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/batcher"
	"code.hybscloud.com/batcher/metrics"
)

func TestNewRejectsInvalidWorkerCount(t *testing.T) {
	mux := batcher.IdentityMultiplexer[int]()

	_, err := batcher.New[int, int](batcher.NewInlineExecutor(), mux, 0)
	require.ErrorIs(t, err, batcher.ErrInvalidWorkerCount)

	_, err = batcher.New[int, int](batcher.NewInlineExecutor(), mux, -1)
	require.ErrorIs(t, err, batcher.ErrInvalidWorkerCount)

	_, err = batcher.New[int, int](batcher.NewInlineExecutor(), mux, batcher.ActiveWorkersMax+1)
	require.ErrorIs(t, err, batcher.ErrInvalidWorkerCount)
}

func TestNewAcceptsBoundaryWorkerCounts(t *testing.T) {
	mux := batcher.IdentityMultiplexer[int]()

	_, err := batcher.New[int, int](batcher.NewInlineExecutor(), mux, 1)
	require.NoError(t, err)

	_, err = batcher.New[int, int](batcher.NewInlineExecutor(), mux, batcher.ActiveWorkersMax)
	require.NoError(t, err)
}

func TestOptionsAreApplied(t *testing.T) {
	mux := batcher.IdentityMultiplexer[int]()
	mp := metrics.Memory()

	b, err := batcher.New[int, int](batcher.NewInlineExecutor(), mux, 2,
		batcher.WithQueueCapacity(16),
		batcher.WithBatchSize(7),
		batcher.WithQueueFullSleep(1),
		batcher.WithMetrics(mp),
		batcher.WithLogger(slog.Default()),
	)
	require.NoError(t, err)
	require.NotNil(t, b)

	// Options are black-box from the outside; exercise that the batcher is
	// at least usable end to end with them applied.
	pr := b.Submit(t.Context(), 42)
	v, err := pr.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
