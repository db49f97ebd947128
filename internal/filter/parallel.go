package filter

import (
	"runtime"
	"sync"
)

// minChunk is the smallest number of cells handed to one worker.
const minChunk = 4096

// parallelFor runs fn over [0, n) split into contiguous chunks, one
// goroutine per chunk. Small ranges run on the calling goroutine.
func parallelFor(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
