package backend

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/cmplxs"

	"github.com/agbru/tmmcalc/internal/tensor"
)

// gonumBackend routes matrix products through gonum's BLAS implementation and
// same-shape elementwise arithmetic through gonum's cmplxs vector routines.
// Broadcasting cases fall back to the embedded kernel.
type gonumBackend struct {
	*kernel
}

// NewGonum returns the backend built on gonum.org/v1/gonum. Loops are
// scheduled like the parallel backend, and every matrix product, the 2x2
// transfer matrices included, goes through BLAS.
func NewGonum(opts Options) Backend {
	opts = opts.normalize()
	return &gonumBackend{kernel: &kernel{
		name:     "gonum",
		run:      chunkedRunner{workers: opts.Workers, threshold: opts.Threshold},
		gemm:     blasGemm,
		gemmOnly: true,
	}}
}

// blasGemm wraps the row-major slices in cblas128 views and calls ZGEMM.
func blasGemm(m, k, n int, a, b, c []complex128) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1,
		cblas128.General{Rows: m, Cols: k, Data: a, Stride: k},
		cblas128.General{Rows: k, Cols: n, Data: b, Stride: n},
		0,
		cblas128.General{Rows: m, Cols: n, Data: c, Stride: n},
	)
}

func (g *gonumBackend) vector(a, b *tensor.Tensor, to func(dst, s, t []complex128) []complex128, fallback func(a, b *tensor.Tensor) (*tensor.Tensor, error)) (*tensor.Tensor, error) {
	if !a.Shape().Equal(b.Shape()) {
		return fallback(a, b)
	}
	dst := make([]complex128, a.Len())
	ad, bd := a.Data(), b.Data()
	err := g.run.run(len(dst), func(lo, hi int) {
		to(dst[lo:hi], ad[lo:hi], bd[lo:hi])
	})
	if err != nil {
		return nil, err
	}
	return tensor.New(a.Shape(), dst)
}

func (g *gonumBackend) Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return g.vector(a, b, cmplxs.AddTo, g.kernel.Add)
}

func (g *gonumBackend) Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return g.vector(a, b, cmplxs.SubTo, g.kernel.Sub)
}

func (g *gonumBackend) Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return g.vector(a, b, cmplxs.MulTo, g.kernel.Mul)
}

func (g *gonumBackend) Divide(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return g.vector(a, b, cmplxs.DivTo, g.kernel.Divide)
}
