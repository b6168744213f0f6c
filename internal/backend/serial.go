package backend

// NewSerial returns the reference backend: pure Go kernels executed on the
// calling goroutine.
func NewSerial() Backend {
	return &kernel{name: "serial", run: serialRunner{}, gemm: naiveGemm}
}
