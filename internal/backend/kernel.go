package backend

import (
	"fmt"
	"math/cmplx"

	"github.com/agbru/tmmcalc/internal/tensor"
)

// gemmFunc computes c = a x b for one row-major (m x k) by (k x n) product.
type gemmFunc func(m, k, n int, a, b, c []complex128)

// kernel implements the Backend capability set on the CPU. The concrete
// backends differ in the runner that schedules loops and in the gemm used for
// matrices larger than 2x2.
type kernel struct {
	name     string
	run      runner
	gemm     gemmFunc
	gemmOnly bool
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) binary(a, b *tensor.Tensor, op func(x, y complex128) complex128) (*tensor.Tensor, error) {
	plan, err := tensor.NewPlan(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	out := make([]complex128, plan.Out.Size())
	ad, bd := a.Data(), b.Data()
	err = k.run.run(len(out), func(lo, hi int) {
		if plan.Identity() {
			for i := lo; i < hi; i++ {
				out[i] = op(ad[i], bd[i])
			}
			return
		}
		for i := lo; i < hi; i++ {
			ia, ib := plan.Offsets(i)
			out[i] = op(ad[ia], bd[ib])
		}
	})
	if err != nil {
		return nil, err
	}
	return tensor.New(plan.Out, out)
}

func (k *kernel) unary(a *tensor.Tensor, op func(x complex128) complex128) (*tensor.Tensor, error) {
	in := a.Data()
	out := make([]complex128, len(in))
	err := k.run.run(len(in), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = op(in[i])
		}
	})
	if err != nil {
		return nil, err
	}
	return tensor.New(a.Shape(), out)
}

func (k *kernel) Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return k.binary(a, b, func(x, y complex128) complex128 { return x + y })
}

func (k *kernel) Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return k.binary(a, b, func(x, y complex128) complex128 { return x - y })
}

func (k *kernel) Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return k.binary(a, b, func(x, y complex128) complex128 { return x * y })
}

// Divide follows IEEE semantics: a zero denominator yields Inf or NaN
// components rather than an error.
func (k *kernel) Divide(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return k.binary(a, b, func(x, y complex128) complex128 { return x / y })
}

func (k *kernel) Sqrt(a *tensor.Tensor) (*tensor.Tensor, error) { return k.unary(a, cmplx.Sqrt) }

func (k *kernel) Square(a *tensor.Tensor) (*tensor.Tensor, error) {
	return k.unary(a, func(x complex128) complex128 { return x * x })
}

func (k *kernel) Exp(a *tensor.Tensor) (*tensor.Tensor, error) { return k.unary(a, cmplx.Exp) }

func (k *kernel) Complex(re, im *tensor.Tensor) (*tensor.Tensor, error) {
	return k.binary(re, im, func(x, y complex128) complex128 { return complex(real(x), real(y)) })
}

func (k *kernel) Cast(a *tensor.Tensor, dt tensor.DType) (*tensor.Tensor, error) {
	switch dt {
	case tensor.Complex128:
		return a, nil
	case tensor.Float64:
		return k.unary(a, func(x complex128) complex128 { return complex(real(x), 0) })
	}
	return nil, fmt.Errorf("%s: unsupported dtype %v", k.name, dt)
}

func (k *kernel) Reshape(a *tensor.Tensor, dims ...int) (*tensor.Tensor, error) {
	shape, err := tensor.ResolveShape(a.Len(), dims)
	if err != nil {
		return nil, err
	}
	return tensor.New(shape, a.Data())
}

func (k *kernel) Transpose(a *tensor.Tensor, perm ...int) (*tensor.Tensor, error) {
	in := a.Shape()
	out, err := tensor.PermuteShape(in, perm)
	if err != nil {
		return nil, err
	}
	inStr := in.Strides()
	// Stride of output axis i inside the input buffer.
	srcStr := make([]int, len(perm))
	for i, p := range perm {
		srcStr[i] = inStr[p]
	}
	outStr := out.Strides()
	src := a.Data()
	dst := make([]complex128, len(src))
	err = k.run.run(len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			rem, off := i, 0
			for d, s := range outStr {
				q := rem / s
				rem -= q * s
				off += q * srcStr[d]
			}
			dst[i] = src[off]
		}
	})
	if err != nil {
		return nil, err
	}
	return tensor.New(out, dst)
}

func (k *kernel) Stack(axis int, ts ...*tensor.Tensor) (*tensor.Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%s: stack of zero tensors", k.name)
	}
	shape := ts[0].Shape()
	for _, t := range ts[1:] {
		if !t.Shape().Equal(shape) {
			return nil, fmt.Errorf("%s: stack of mismatched shapes %v and %v", k.name, shape, t.Shape())
		}
	}
	axis, err := tensor.NormalizeAxis(axis, len(shape)+1)
	if err != nil {
		return nil, err
	}
	outer := shape[:axis].Size()
	inner := shape[axis:].Size()
	out := make(tensor.Shape, 0, len(shape)+1)
	out = append(out, shape[:axis]...)
	out = append(out, len(ts))
	out = append(out, shape[axis:]...)

	dst := make([]complex128, out.Size())
	for o := 0; o < outer; o++ {
		for j, t := range ts {
			copy(dst[(o*len(ts)+j)*inner:], t.Data()[o*inner:(o+1)*inner])
		}
	}
	return tensor.New(out, dst)
}

func (k *kernel) MatMul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	if a.Rank() < 2 || b.Rank() < 2 {
		return nil, fmt.Errorf("%s: matmul needs rank >= 2 operands, got %v and %v", k.name, a.Shape(), b.Shape())
	}
	as, bs := a.Shape(), b.Shape()
	m, kk := as[len(as)-2], as[len(as)-1]
	kb, n := bs[len(bs)-2], bs[len(bs)-1]
	if kk != kb {
		return nil, fmt.Errorf("%s: matmul inner dimensions differ: %v x %v", k.name, as, bs)
	}
	plan, err := tensor.NewPlan(as[:len(as)-2], bs[:len(bs)-2])
	if err != nil {
		return nil, err
	}
	batch := plan.Out.Size()
	ad, bd := a.Data(), b.Data()
	sa, sb, sc := m*kk, kk*n, m*n
	dst := make([]complex128, batch*sc)

	square2 := !k.gemmOnly && m == 2 && kk == 2 && n == 2
	err = k.run.run(batch, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			ia, ib := plan.Offsets(i)
			x, y, z := ad[ia*sa:(ia+1)*sa], bd[ib*sb:(ib+1)*sb], dst[i*sc:(i+1)*sc]
			if square2 {
				mul2x2(x, y, z)
				continue
			}
			k.gemm(m, kk, n, x, y, z)
		}
	})
	if err != nil {
		return nil, err
	}
	out := append(plan.Out.Clone(), m, n)
	return tensor.New(out, dst)
}

// mul2x2 is the dedicated kernel for the transfer-matrix hot loop.
func mul2x2(a, b, c []complex128) {
	a00, a01, a10, a11 := a[0], a[1], a[2], a[3]
	b00, b01, b10, b11 := b[0], b[1], b[2], b[3]
	c[0] = a00*b00 + a01*b10
	c[1] = a00*b01 + a01*b11
	c[2] = a10*b00 + a11*b10
	c[3] = a10*b01 + a11*b11
}

// naiveGemm is the reference row-major product used by the pure Go backends.
func naiveGemm(m, kk, n int, a, b, c []complex128) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for p := 0; p < kk; p++ {
				sum += a[i*kk+p] * b[p*n+j]
			}
			c[i*n+j] = sum
		}
	}
}

func (k *kernel) Diag(a *tensor.Tensor) (*tensor.Tensor, error) {
	if a.Rank() < 1 {
		return nil, fmt.Errorf("%s: diag of a scalar", k.name)
	}
	n := a.Dim(-1)
	batch := a.Len() / max(n, 1)
	src := a.Data()
	dst := make([]complex128, batch*n*n)
	for b := 0; b < batch; b++ {
		for i := 0; i < n; i++ {
			dst[b*n*n+i*n+i] = src[b*n+i]
		}
	}
	return tensor.New(append(a.Shape(), n), dst)
}

func (k *kernel) Eye(n int, batch ...int) (*tensor.Tensor, error) {
	if n < 0 {
		return nil, fmt.Errorf("%s: negative identity size %d", k.name, n)
	}
	shape := append(tensor.Shape(batch).Clone(), n, n)
	for _, d := range batch {
		if d < 0 {
			return nil, fmt.Errorf("%s: negative batch dimension in %v", k.name, batch)
		}
	}
	dst := make([]complex128, shape.Size())
	for b := 0; b < tensor.Shape(batch).Size(); b++ {
		for i := 0; i < n; i++ {
			dst[b*n*n+i*n+i] = 1
		}
	}
	return tensor.New(shape, dst)
}

func (k *kernel) Roll(a *tensor.Tensor, shift, axis int) (*tensor.Tensor, error) {
	shape := a.Shape()
	axis, err := tensor.NormalizeAxis(axis, len(shape))
	if err != nil {
		return nil, err
	}
	dim := shape[axis]
	if dim == 0 {
		return a.Clone(), nil
	}
	shift = ((shift % dim) + dim) % dim
	outer := shape[:axis].Size()
	inner := shape[axis+1:].Size()
	src := a.Data()
	dst := make([]complex128, len(src))
	for o := 0; o < outer; o++ {
		for i := 0; i < dim; i++ {
			to := (i + shift) % dim
			copy(dst[(o*dim+to)*inner:(o*dim+to+1)*inner], src[(o*dim+i)*inner:(o*dim+i+1)*inner])
		}
	}
	return tensor.New(shape, dst)
}
