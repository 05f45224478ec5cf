package parallel

import (
	"context"
	"runtime"
	"sync"
)

// ForEachIndex runs fn(i) for every i in [0, n) on at most workers
// goroutines. workers <= 0 means runtime.NumCPU(); workers == 1 runs
// sequentially in index order on the calling goroutine.
//
// Indices are handed out in ascending order. Once ctx is done no further
// index is started and ctx.Err() is returned after running ones finish.
// fn must only write state owned by its own index.
func ForEachIndex(ctx context.Context, n, workers int, fn func(i int)) error {
	if n <= 0 {
		return ctx.Err()
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	if workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return err
}

// Parallelize splits [0, items) into one contiguous chunk per CPU and runs
// fn on each chunk concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := min(runtime.NumCPU(), items)
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

// ParallelizeWithThreshold calls fn(0, items) inline when items does not
// exceed threshold and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
