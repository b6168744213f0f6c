package backend

import "github.com/agbru/tmmcalc/internal/parallel"

// runner schedules a loop over n independent work items.
type runner interface {
	run(n int, body func(lo, hi int)) error
}

// serialRunner executes every loop inline.
type serialRunner struct{}

func (serialRunner) run(n int, body func(lo, hi int)) error {
	if n > 0 {
		body(0, n)
	}
	return nil
}

// chunkedRunner fans large loops out over goroutines.
type chunkedRunner struct {
	workers   int
	threshold int
}

func (r chunkedRunner) run(n int, body func(lo, hi int)) error {
	return parallel.ForEachChunk(n, r.workers, r.threshold, body)
}
