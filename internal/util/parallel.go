package util

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ConcurrentRange splits the index range [0, n) into contiguous chunks, one
// per worker, and calls f on each chunk from its own goroutine. The number of
// workers is runtime.GOMAXPROCS(0), capped at n. The last worker is
// responsible for the excess indexes that could not be evenly divided. It
// returns once every worker is done, with the first error encountered.
func ConcurrentRange(n int, f func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}

	nworkers := runtime.GOMAXPROCS(0)
	if nworkers > n {
		nworkers = n
	}

	// how many indexes each worker is responsible for
	workerResp := n / nworkers

	var g errgroup.Group
	for w := 0; w < nworkers; w++ {
		w := w
		g.Go(func() error {
			step := workerResp * w
			if w == nworkers-1 { // last worker has extra work
				return f(step, n)
			}
			return f(step, step+workerResp)
		})
	}

	return g.Wait()
}
