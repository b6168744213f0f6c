//go:build openblas

// This file provides an OpenBLAS-backed numeric backend, conditionally
// compiled with the "openblas" build tag:
//   - The default build stays pure Go and portable.
//   - OpenBLAS support is opt-in: go build -tags=openblas
//
// System Requirements:
//   - Linux: sudo apt-get install libopenblas-dev (Debian/Ubuntu)
//   - macOS: brew install openblas (and export CGO_CFLAGS/CGO_LDFLAGS)

package backend

/*
#cgo LDFLAGS: -lopenblas
#include <cblas.h>
*/
import "C"

import "unsafe"

func init() {
	_ = Register("openblas", func(opts Options) Backend { return NewOpenBLAS(opts) })
}

// NewOpenBLAS returns a backend whose matrix products call cblas_zgemm from
// the system OpenBLAS library. Elementwise kernels are the pure Go ones.
func NewOpenBLAS(opts Options) Backend {
	opts = opts.normalize()
	return &kernel{
		name:     "openblas",
		run:      chunkedRunner{workers: opts.Workers, threshold: opts.Threshold},
		gemm:     zgemm,
		gemmOnly: true,
	}
}

// zgemm computes c = a x b for row-major complex128 matrices.
func zgemm(m, k, n int, a, b, c []complex128) {
	alpha, beta := complex128(1), complex128(0)
	C.cblas_zgemm(C.CblasRowMajor, C.CblasNoTrans, C.CblasNoTrans,
		C.blasint(m), C.blasint(n), C.blasint(k),
		unsafe.Pointer(&alpha), unsafe.Pointer(&a[0]), C.blasint(k),
		unsafe.Pointer(&b[0]), C.blasint(n),
		unsafe.Pointer(&beta), unsafe.Pointer(&c[0]), C.blasint(n))
}
