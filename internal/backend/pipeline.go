package backend

import "github.com/agbru/tmmcalc/internal/tensor"

// Pipeline threads the first error through a sequence of backend operations,
// so numeric code can be written as straight-line expressions and checked
// once at the end. After a failure every method returns nil without calling
// the backend.
type Pipeline struct {
	b   Backend
	err error
}

// NewPipeline starts an expression sequence on b.
func NewPipeline(b Backend) *Pipeline {
	return &Pipeline{b: b}
}

// Backend returns the backend the pipeline runs on.
func (p *Pipeline) Backend() Backend { return p.b }

// Err returns the first error raised by any step.
func (p *Pipeline) Err() error { return p.err }

func (p *Pipeline) binary(op func(a, b *tensor.Tensor) (*tensor.Tensor, error), a, b *tensor.Tensor) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := op(a, b)
	p.err = err
	return out
}

func (p *Pipeline) unary(op func(a *tensor.Tensor) (*tensor.Tensor, error), a *tensor.Tensor) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := op(a)
	p.err = err
	return out
}

func (p *Pipeline) Add(a, b *tensor.Tensor) *tensor.Tensor    { return p.binary(p.b.Add, a, b) }
func (p *Pipeline) Sub(a, b *tensor.Tensor) *tensor.Tensor    { return p.binary(p.b.Sub, a, b) }
func (p *Pipeline) Mul(a, b *tensor.Tensor) *tensor.Tensor    { return p.binary(p.b.Mul, a, b) }
func (p *Pipeline) Divide(a, b *tensor.Tensor) *tensor.Tensor { return p.binary(p.b.Divide, a, b) }
func (p *Pipeline) MatMul(a, b *tensor.Tensor) *tensor.Tensor { return p.binary(p.b.MatMul, a, b) }
func (p *Pipeline) Complex(re, im *tensor.Tensor) *tensor.Tensor {
	return p.binary(p.b.Complex, re, im)
}

func (p *Pipeline) Sqrt(a *tensor.Tensor) *tensor.Tensor   { return p.unary(p.b.Sqrt, a) }
func (p *Pipeline) Square(a *tensor.Tensor) *tensor.Tensor { return p.unary(p.b.Square, a) }
func (p *Pipeline) Exp(a *tensor.Tensor) *tensor.Tensor    { return p.unary(p.b.Exp, a) }
func (p *Pipeline) Diag(a *tensor.Tensor) *tensor.Tensor   { return p.unary(p.b.Diag, a) }

func (p *Pipeline) Cast(a *tensor.Tensor, dt tensor.DType) *tensor.Tensor {
	return p.unary(func(a *tensor.Tensor) (*tensor.Tensor, error) { return p.b.Cast(a, dt) }, a)
}

func (p *Pipeline) Reshape(a *tensor.Tensor, dims ...int) *tensor.Tensor {
	return p.unary(func(a *tensor.Tensor) (*tensor.Tensor, error) { return p.b.Reshape(a, dims...) }, a)
}

func (p *Pipeline) Transpose(a *tensor.Tensor, perm ...int) *tensor.Tensor {
	return p.unary(func(a *tensor.Tensor) (*tensor.Tensor, error) { return p.b.Transpose(a, perm...) }, a)
}

func (p *Pipeline) Roll(a *tensor.Tensor, shift, axis int) *tensor.Tensor {
	return p.unary(func(a *tensor.Tensor) (*tensor.Tensor, error) { return p.b.Roll(a, shift, axis) }, a)
}

func (p *Pipeline) Stack(axis int, ts ...*tensor.Tensor) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := p.b.Stack(axis, ts...)
	p.err = err
	return out
}

func (p *Pipeline) Eye(n int, batch ...int) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := p.b.Eye(n, batch...)
	p.err = err
	return out
}

// Slice takes rows [lo, hi) of the leading axis.
func (p *Pipeline) Slice(a *tensor.Tensor, lo, hi int) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := a.Slice(lo, hi)
	p.err = err
	return out
}

// Index takes row i of the leading axis.
func (p *Pipeline) Index(a *tensor.Tensor, i int) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := a.Index(i)
	p.err = err
	return out
}

// Entry gathers element (i, j) of a batch of matrices.
func (p *Pipeline) Entry(a *tensor.Tensor, i, j int) *tensor.Tensor {
	if p.err != nil {
		return nil
	}
	out, err := a.MatrixEntry(i, j)
	p.err = err
	return out
}
