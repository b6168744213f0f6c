// Package calibration measures the scheduling options of the parallel
// backend on the current machine and caches the outcome in a profile.
// This file implements candidate generation based on hardware
// characteristics.
package calibration

import (
	"runtime"
	"slices"
)

// GenerateParallelThresholds returns the chunk thresholds, in batch elements,
// tried by a full calibration. Machines with more cores get finer and
// coarser candidates: fine chunks only pay off when many workers share the
// loop.
func GenerateParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		// The threshold is irrelevant on a single core.
		return []int{4096}
	case numCPU <= 4:
		return []int{1024, 2048, 4096, 8192, 16384}
	case numCPU <= 8:
		return []int{512, 1024, 2048, 4096, 8192, 16384}
	case numCPU <= 16:
		return []int{512, 1024, 2048, 4096, 8192, 16384, 32768}
	default:
		return []int{256, 512, 1024, 2048, 4096, 8192, 16384, 32768}
	}
}

// GenerateQuickParallelThresholds returns a reduced candidate set for
// startup auto-calibration.
func GenerateQuickParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return []int{4096}
	case numCPU <= 4:
		return []int{2048, 4096, 8192}
	default:
		return []int{1024, 4096, 16384}
	}
}

// GenerateWorkerCounts returns the worker counts to try: the powers of two
// below GOMAXPROCS, and GOMAXPROCS itself.
func GenerateWorkerCounts() []int {
	maxProcs := runtime.GOMAXPROCS(0)
	var counts []int
	for w := 1; w < maxProcs; w *= 2 {
		counts = append(counts, w)
	}
	counts = append(counts, maxProcs)
	return slices.Compact(counts)
}
