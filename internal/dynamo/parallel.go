package dynamo

import (
	"runtime"
	"sync"
)

// ParallelFor calls fn over [0, n) in contiguous, non-overlapping ranges of
// at least minChunk indices, one goroutine per range. fn may write per-index
// outputs without locking.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	minChunk = max(minChunk, 1)
	workers := chunkWorkers(n, minChunk)
	if workers == 1 {
		fn(0, n)
		return
	}

	size := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}

func chunkWorkers(n, minChunk int) int {
	return max(1, min(runtime.GOMAXPROCS(0), n/minChunk))
}
