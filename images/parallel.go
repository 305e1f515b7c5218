package images

import (
	"runtime"
	"sync"
)

// Parallel splits n units of work across workers goroutines and calls fn
// with the half-open range each goroutine owns. A non-positive workers count
// uses one goroutine per CPU. Small workloads run serially to avoid
// scheduling overhead.
func Parallel(n, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n < workers*2 {
		fn(0, n)
		return
	}

	part := n / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * part
		end := start + part
		if i == workers-1 {
			end = n
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
