// Package fanout runs a small batch of independent upstream calls
// concurrently and merges their results.
package fanout

import (
	"context"
	"sync"
)

// Task produces one unit of a batch.
type Task[T any] func(ctx context.Context) (T, error)

type outcome[T any] struct {
	value T
	err   error
}

// Gather launches every task in its own goroutine, waits for all of them,
// and returns the successful results in task order. A failed task is
// dropped; it never aborts the batch and its siblings are not cancelled.
func Gather[T any](ctx context.Context, tasks []Task[T]) []T {
	outcomes := make([]outcome[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task Task[T]) {
			defer wg.Done()
			v, err := task(ctx)
			outcomes[i] = outcome[T]{value: v, err: err}
		}(i, task)
	}
	wg.Wait()

	results := make([]T, 0, len(tasks))
	for _, o := range outcomes {
		if o.err == nil {
			results = append(results, o.value)
		}
	}
	return results
}

// GatherFlat is Gather for tasks that each yield a slice, flattening the
// surviving slices in task order.
func GatherFlat[T any](ctx context.Context, tasks []Task[[]T]) []T {
	var flat []T
	for _, batch := range Gather(ctx, tasks) {
		flat = append(flat, batch...)
	}
	return flat
}
