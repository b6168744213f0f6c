package tensor

import "fmt"

// BroadcastShapes combines two shapes under NumPy broadcasting rules: shapes
// are aligned on their trailing axes and a dimension of 1 stretches to match
// the other operand.
//
// Returns:
//   - Shape: The broadcast result shape.
//   - error: An error if a pair of aligned dimensions is incompatible.
func BroadcastShapes(a, b Shape) (Shape, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}
		switch {
		case da == db, db == 1:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
		default:
			return nil, fmt.Errorf("tensor: shapes %v and %v cannot be broadcast", a, b)
		}
	}
	return out, nil
}

// Plan maps flat indices of a broadcast result back to the flat indices of
// its two operands.
type Plan struct {
	Out      Shape
	outStr   []int
	aStr     []int
	bStr     []int
	identity bool
}

// NewPlan prepares the index mapping for an elementwise binary operation.
func NewPlan(a, b Shape) (Plan, error) {
	out, err := BroadcastShapes(a, b)
	if err != nil {
		return Plan{}, err
	}
	p := Plan{
		Out:      out,
		outStr:   out.Strides(),
		aStr:     broadcastStrides(a, out),
		bStr:     broadcastStrides(b, out),
		identity: a.Equal(out) && b.Equal(out),
	}
	return p, nil
}

// Identity reports whether both operands already have the output shape, in
// which case every flat index maps to itself.
func (p Plan) Identity() bool { return p.identity }

// Offsets returns the operand offsets feeding output element i.
func (p Plan) Offsets(i int) (ia, ib int) {
	if p.identity {
		return i, i
	}
	rem := i
	for d, s := range p.outStr {
		q := rem / s
		rem -= q * s
		ia += q * p.aStr[d]
		ib += q * p.bStr[d]
	}
	return ia, ib
}

// broadcastStrides aligns the row-major strides of s against out, giving a
// zero stride to every stretched or missing axis.
func broadcastStrides(s, out Shape) []int {
	strides := make([]int, len(out))
	own := s.Strides()
	shift := len(out) - len(s)
	for i := range s {
		if s[i] != 1 {
			strides[i+shift] = own[i]
		}
	}
	return strides
}

// ResolveShape fills in a single -1 dimension so that the shape holds size
// elements.
func ResolveShape(size int, dims []int) (Shape, error) {
	out := make(Shape, len(dims))
	infer := -1
	known := 1
	for i, d := range dims {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("tensor: more than one inferred dimension in %v", dims)
			}
			infer = i
		case d < 0:
			return nil, fmt.Errorf("tensor: invalid dimension %d in %v", d, dims)
		default:
			known *= d
		}
		out[i] = d
	}
	if infer >= 0 {
		if known == 0 || size%known != 0 {
			return nil, fmt.Errorf("tensor: cannot reshape %d elements into %v", size, dims)
		}
		out[infer] = size / known
	}
	if out.Size() != size {
		return nil, fmt.Errorf("tensor: cannot reshape %d elements into %v", size, dims)
	}
	return out, nil
}

// PermuteShape validates an axis permutation and returns the permuted shape.
func PermuteShape(s Shape, perm []int) (Shape, error) {
	if len(perm) != len(s) {
		return nil, fmt.Errorf("tensor: permutation %v does not match rank %d", perm, len(s))
	}
	seen := make([]bool, len(s))
	out := make(Shape, len(s))
	for i, p := range perm {
		if p < 0 || p >= len(s) || seen[p] {
			return nil, fmt.Errorf("tensor: invalid permutation %v", perm)
		}
		seen[p] = true
		out[i] = s[p]
	}
	return out, nil
}

// NormalizeAxis maps a possibly negative axis onto [0, rank).
func NormalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmt.Errorf("tensor: axis out of range for rank %d", rank)
	}
	return axis, nil
}
