// Package tensor provides the dense, row-major complex128 arrays the
// transfer-matrix engine operates on. A Tensor is immutable once built: every
// backend operation returns a new Tensor, so values can be shared freely
// between goroutines.
package tensor

import (
	"fmt"
	"strings"
)

// Shape is the list of dimension sizes of a Tensor, outermost first.
type Shape []int

// Size returns the number of elements described by the shape.
// The empty shape describes a scalar and has size 1.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have the same rank and dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// Strides returns the row-major element strides of the shape.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Tensor is an n-dimensional array of complex128 values stored in row-major
// order.
type Tensor struct {
	shape Shape
	data  []complex128
}

// New builds a tensor over data with the given shape. The slice is adopted,
// not copied; callers must not modify it afterwards.
//
// Parameters:
//   - shape: The dimensions of the tensor. Negative sizes are rejected.
//   - data: The row-major element values.
//
// Returns:
//   - *Tensor: The new tensor.
//   - error: An error if the data length does not match the shape.
func New(shape Shape, data []complex128) (*Tensor, error) {
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
	}
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("tensor: %d values cannot fill shape %v", len(data), shape)
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// MustNew is like New but panics on a size mismatch. It is intended for
// kernels whose output shape is computed from validated inputs.
func MustNew(shape Shape, data []complex128) *Tensor {
	t, err := New(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Zeros allocates a zero-filled tensor of the given shape.
func Zeros(shape ...int) *Tensor {
	s := Shape(shape)
	return &Tensor{shape: s.Clone(), data: make([]complex128, s.Size())}
}

// Scalar returns a rank-0 tensor holding v.
func Scalar(v complex128) *Tensor {
	return &Tensor{shape: Shape{}, data: []complex128{v}}
}

// FromReal promotes a real vector to a rank-1 complex tensor.
func FromReal(xs []float64) *Tensor {
	data := make([]complex128, len(xs))
	for i, x := range xs {
		data[i] = complex(x, 0)
	}
	return &Tensor{shape: Shape{len(xs)}, data: data}
}

// FromComplex copies a complex vector into a rank-1 tensor.
func FromComplex(xs []complex128) *Tensor {
	data := make([]complex128, len(xs))
	copy(data, xs)
	return &Tensor{shape: Shape{len(xs)}, data: data}
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() Shape { return t.shape.Clone() }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// Dim returns the size of axis i. Negative axes count from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// Data exposes the row-major backing slice. It must be treated as read-only.
func (t *Tensor) Data() []complex128 { return t.data }

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) complex128 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index of rank %d into tensor of rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, s := range t.shape.Strides() {
		if idx[i] < 0 || idx[i] >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += idx[i] * s
	}
	return t.data[off]
}

// Slice returns the sub-tensor spanning [lo, hi) along the leading axis.
// The result shares storage with t.
func (t *Tensor) Slice(lo, hi int) (*Tensor, error) {
	if len(t.shape) == 0 {
		return nil, fmt.Errorf("tensor: cannot slice a scalar")
	}
	if lo < 0 || hi > t.shape[0] || lo > hi {
		return nil, fmt.Errorf("tensor: slice [%d:%d] out of range for leading dimension %d", lo, hi, t.shape[0])
	}
	inner := t.shape[1:].Size()
	shape := append(Shape{hi - lo}, t.shape[1:]...)
	return &Tensor{shape: shape, data: t.data[lo*inner : hi*inner : hi*inner]}, nil
}

// Index returns the sub-tensor at position i of the leading axis.
func (t *Tensor) Index(i int) (*Tensor, error) {
	s, err := t.Slice(i, i+1)
	if err != nil {
		return nil, err
	}
	return &Tensor{shape: s.shape[1:].Clone(), data: s.data}, nil
}

// MatrixEntry gathers element (i, j) of every matrix in a batch of matrices
// held in the two trailing axes. The result has the batch shape.
func (t *Tensor) MatrixEntry(i, j int) (*Tensor, error) {
	if len(t.shape) < 2 {
		return nil, fmt.Errorf("tensor: matrix entry of rank-%d tensor", len(t.shape))
	}
	rows, cols := t.shape[len(t.shape)-2], t.shape[len(t.shape)-1]
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return nil, fmt.Errorf("tensor: entry (%d,%d) outside %dx%d matrices", i, j, rows, cols)
	}
	batch := t.shape[:len(t.shape)-2].Clone()
	out := make([]complex128, batch.Size())
	step := rows * cols
	for b := range out {
		out[b] = t.data[b*step+i*cols+j]
	}
	return &Tensor{shape: batch, data: out}, nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]complex128, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// Rows returns the values of a rank-2 tensor as one slice per row. The rows
// are copies.
func (t *Tensor) Rows() ([][]complex128, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("tensor: rows of rank-%d tensor", len(t.shape))
	}
	rows := make([][]complex128, t.shape[0])
	for i := range rows {
		rows[i] = append([]complex128(nil), t.data[i*t.shape[1]:(i+1)*t.shape[1]]...)
	}
	return rows, nil
}

// DType names an element interpretation for Cast. Storage is always
// complex128; Float64 means the imaginary parts are discarded.
type DType int

const (
	// Complex128 keeps both parts of every element.
	Complex128 DType = iota
	// Float64 keeps only the real part of every element.
	Float64
)

func (d DType) String() string {
	switch d {
	case Complex128:
		return "complex128"
	case Float64:
		return "float64"
	}
	return "unknown"
}
