package backend

// NewParallel returns a pure Go backend that splits every kernel loop into
// chunks processed concurrently once the loop reaches opts.Threshold work
// items.
//
// Parameters:
//   - opts: The scheduling options (zero values select the defaults).
//
// Returns:
//   - Backend: The parallel backend.
func NewParallel(opts Options) Backend {
	opts = opts.normalize()
	return &kernel{
		name: "parallel",
		run:  chunkedRunner{workers: opts.Workers, threshold: opts.Threshold},
		gemm: naiveGemm,
	}
}
