// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package batcher_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"code.hybscloud.com/batcher"
)

// ExampleNew demonstrates the minimal setup: a Multiplexer, an Executor, and
// a single Submit/Wait round trip.
func ExampleNew() {
	mux := batcher.MultiplexerFunc[string, int](func(_ context.Context, reqs []string) ([]int, error) {
		out := make([]int, len(reqs))
		for i, r := range reqs {
			out[i] = len(r)
		}
		return out, nil
	})

	b, err := batcher.New[string, int](batcher.NewInlineExecutor(), mux, 1)
	if err != nil {
		fmt.Println("new:", err)
		return
	}

	pr := b.Submit(context.Background(), "hello")
	n, err := pr.Wait(context.Background())
	if err != nil {
		fmt.Println("wait:", err)
		return
	}
	fmt.Println(n)

	// Output:
	// 5
}

// Example_fanOut demonstrates many requests landing in one physical call.
// A worker pool executor is used so submits do not block on each other;
// results are collected by request index before printing so the example's
// output is deterministic regardless of completion order.
func Example_fanOut() {
	var calls int
	var mu sync.Mutex

	mux := batcher.MultiplexerFunc[int, int](func(_ context.Context, reqs []int) ([]int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		out := make([]int, len(reqs))
		for i, r := range reqs {
			out[i] = r * r
		}
		return out, nil
	})

	b, err := batcher.New[int, int](batcher.NewPool(2), mux, 1)
	if err != nil {
		fmt.Println("new:", err)
		return
	}

	const n = 5
	prs := make([]*batcher.PendingResponse[int, int], n)
	for i := range n {
		prs[i] = b.Submit(context.Background(), i+1)
	}

	results := make([]int, n)
	for i, pr := range prs {
		v, err := pr.Wait(context.Background())
		if err != nil {
			fmt.Println("wait:", err)
			return
		}
		results[i] = v
	}

	for i, v := range results {
		fmt.Printf("%d² = %d\n", i+1, v)
	}

	// Output:
	// 1² = 1
	// 2² = 4
	// 3² = 9
	// 4² = 16
	// 5² = 25
}

// Example_errorPropagation demonstrates that a failing Multiplexer resolves
// every request in its batch with the same error, without taking the
// batcher itself down.
func Example_errorPropagation() {
	downstreamUnavailable := errors.New("downstream unavailable")

	mux := batcher.MultiplexerFunc[string, string](func(_ context.Context, reqs []string) ([]string, error) {
		return nil, downstreamUnavailable
	})

	b, err := batcher.New[string, string](batcher.NewInlineExecutor(), mux, 1)
	if err != nil {
		fmt.Println("new:", err)
		return
	}

	pr := b.Submit(context.Background(), "get:user:1")
	_, err = pr.Wait(context.Background())
	fmt.Println(errors.Is(err, downstreamUnavailable))

	// Output:
	// true
}
