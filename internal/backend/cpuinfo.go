package backend

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures lists the SIMD extensions detected on the host that matter to
// the BLAS kernels, for diagnostics.
func CPUFeatures() []string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		} {
			if f.ok {
				feats = append(feats, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "asimd")
		}
		if cpu.ARM64.HasSVE {
			feats = append(feats, "sve")
		}
	}
	return feats
}

// Environment summarizes the host for diagnostics output.
func Environment() string {
	feats := CPUFeatures()
	if len(feats) == 0 {
		feats = []string{"none detected"}
	}
	return fmt.Sprintf("%s/%s, %d CPUs, GOMAXPROCS %d, features: %s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0), strings.Join(feats, " "))
}
