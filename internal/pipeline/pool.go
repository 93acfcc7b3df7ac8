package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ProgressFunc is called during loading to report progress.
// current is the number of items processed so far, total is the total count.
type ProgressFunc func(current, total int)

// runPool calls fn for every index in [0, n) on a bounded worker pool.
// fn must only write to its own slot of any shared result slice. done, if
// set, receives the running completion count.
func runPool(n, workers int, fn func(idx int), done func(completed int)) {
	if n == 0 {
		return
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 4
	}
	if workers > n {
		workers = n
	}

	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var processed atomic.Int64

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				fn(idx)
				c := processed.Add(1)
				if done != nil {
					done(int(c))
				}
			}
		}()
	}
	wg.Wait()
}
