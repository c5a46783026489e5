// Package concurrency holds small generic helpers for bounded parallel
// fan-out. The scrape coordinator uses ForEach to run one task per site.
package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions configures bounded parallel processing.
type ParallelOptions struct {
	// MaxWorkers caps the number of concurrent workers.
	MaxWorkers int
}

// DefaultOptions returns the default parallelism options.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{MaxWorkers: 10}
}

type indexed[R any] struct {
	index  int
	result R
	err    error
}

// ProcessParallel runs itemFunc for every item with bounded parallelism and
// returns the results in input order, plus any errors. When ctx is cancelled
// the remaining items are reported as ctx.Err().
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultOptions().MaxWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int)
	results := make(chan indexed[R], len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results <- indexed[R]{index: i, err: err}
					continue
				}
				r, err := itemFunc(ctx, i, items[i])
				results <- indexed[R]{index: i, result: r, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range items {
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resultList := make([]R, len(items))
	var errs []error
	for res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
		}
		resultList[res.index] = res.result
	}
	return resultList, errs
}

// ForEach runs itemFunc for every item with bounded parallelism, collecting
// only errors. Useful when the work is all side effects.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	_, errs := ProcessParallel(ctx, items, opts, func(ctx context.Context, i int, item T) (struct{}, error) {
		return struct{}{}, itemFunc(ctx, i, item)
	})
	return errs
}
