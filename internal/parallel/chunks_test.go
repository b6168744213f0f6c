package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEachChunk_CoversRangeOnce(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		n        int
		workers  int
		minChunk int
	}{
		{"inline below threshold", 10, 8, 64},
		{"single worker", 1000, 1, 1},
		{"even split", 1000, 4, 10},
		{"uneven split", 1001, 7, 3},
		{"more workers than items", 5, 32, 1},
		{"empty", 0, 4, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			hits := make([]int32, tc.n)
			err := ForEachChunk(tc.n, tc.workers, tc.minChunk, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestForEachChunk_ReportsPanic(t *testing.T) {
	t.Parallel()
	err := ForEachChunk(100, 4, 1, func(lo, hi int) {
		if lo == 0 {
			panic("bad chunk")
		}
	})
	if err == nil {
		t.Fatal("Expected the chunk panic to surface as an error")
	}
}
