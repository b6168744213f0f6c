package parallel

import "sync"

// ForEachChunk splits the index range [0, n) into contiguous chunks and runs
// body on each chunk concurrently, using at most workers goroutines. Ranges
// shorter than minChunk, or a single worker, run inline on the caller's
// goroutine.
//
// Parameters:
//   - n: The number of work items.
//   - workers: The maximum number of concurrent chunks.
//   - minChunk: The smallest chunk worth handing to a goroutine.
//   - body: The loop body, called with half-open ranges [lo, hi).
//
// Returns:
//   - error: The first panic raised by a chunk, converted to an error.
func ForEachChunk(n, workers, minChunk int, body func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	chunks := min(workers, n/minChunk)
	if chunks <= 1 {
		var ec ErrorCollector
		ec.Capture(func() { body(0, n) })
		return ec.Err()
	}

	size := (n + chunks - 1) / chunks
	var (
		ec ErrorCollector
		wg sync.WaitGroup
	)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			ec.Capture(func() { body(lo, hi) })
		}(lo, hi)
	}
	wg.Wait()
	return ec.Err()
}
