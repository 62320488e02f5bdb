// Package tensor provides the dense numeric buffers that flow through the
// augmentation pipeline. Volumes are stored as flat []float64 slices in
// row-major order, with the element type of the source data kept as a tag.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

// DType tags the element type the buffer was created with.
// Values are always held as float64; the tag controls conversions.
type DType int

const (
	Float32 DType = iota
	Float64
	Int16
	Int32
	Uint8
)

// String returns the conventional lowercase name of the element type
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// IsFloat reports whether the element type is a floating point type
func (d DType) IsFloat() bool {
	return d == Float32 || d == Float64
}

// ErrShape is returned when the data length does not match the requested shape
var ErrShape = errors.New("tensor: data length does not match shape")

// Tensor is an n-dimensional numeric buffer.
//
// All fields are exported so that the structure can be deep-copied by
// reflection; callers should still prefer the constructors.
type Tensor struct {
	// Shape holds the size of each axis, leading axis first
	Shape []int

	// Data holds the values in row-major order
	Data []float64

	// DType is the element type the values represent
	DType DType
}

// New creates a tensor over data with the given shape. The data slice is not copied.
func New(shape []int, data []float64, dtype DType) (*Tensor, error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShape, shape, n, len(data))
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  data,
		DType: dtype,
	}, nil
}

// Zeros creates a float32 tensor of the given shape filled with zeros
func Zeros(shape ...int) *Tensor {
	n, err := numElements(shape)
	if err != nil {
		panic(err)
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
		DType: Float32,
	}
}

func numElements(shape []int) (int, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return 0, fmt.Errorf("%w: negative axis size in %v", ErrShape, shape)
		}
		n *= s
	}
	return n, nil
}

// Dim returns the number of dimensions
func (t *Tensor) Dim() int {
	return len(t.Shape)
}

// Len returns the number of elements
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Float returns the tensor converted to a floating point type.
// A tensor that is already floating point is returned as is.
func (t *Tensor) Float() *Tensor {
	if t.DType.IsFloat() {
		return t
	}
	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = float64(float32(v))
	}
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  data,
		DType: Float32,
	}
}

// CheckShape reports an ErrShape error when the number of values does not
// match the shape, as can happen with tensors built as struct literals
func (t *Tensor) CheckShape() error {
	n, err := numElements(t.Shape)
	if err != nil {
		return err
	}
	if n != len(t.Data) {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShape, t.Shape, n, len(t.Data))
	}
	return nil
}

// Strides returns the row-major stride of each axis
func (t *Tensor) Strides() []int {
	strides := make([]int, len(t.Shape))
	stride := 1
	for i := len(t.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= t.Shape[i]
	}
	return strides
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d dimensions", len(idx), len(t.Shape)))
	}
	off := 0
	for i, s := range t.Strides() {
		if idx[i] < 0 || idx[i] >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.Shape))
		}
		off += idx[i] * s
	}
	return off
}

// At returns the value at the given multi-index
func (t *Tensor) At(idx ...int) float64 {
	return t.Data[t.offset(idx)]
}

// Set stores v at the given multi-index
func (t *Tensor) Set(v float64, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Index returns a copy of the i-th slice along the leading axis
func (t *Tensor) Index(i int) (*Tensor, error) {
	if t.Dim() == 0 {
		return nil, fmt.Errorf("%w: cannot index a scalar", ErrShape)
	}
	if i < 0 || i >= t.Shape[0] {
		return nil, fmt.Errorf("tensor: index %d out of range for axis of size %d", i, t.Shape[0])
	}
	size := len(t.Data) / max(t.Shape[0], 1)
	return &Tensor{
		Shape: append([]int(nil), t.Shape[1:]...),
		Data:  append([]float64(nil), t.Data[i*size:(i+1)*size]...),
		DType: t.DType,
	}, nil
}

// Unsqueeze returns a view of the tensor with a new leading axis of size 1.
// The returned tensor shares its data with t.
func (t *Tensor) Unsqueeze() *Tensor {
	return &Tensor{
		Shape: append([]int{1}, t.Shape...),
		Data:  t.Data,
		DType: t.DType,
	}
}

// Cat concatenates tensors along the leading axis. All tensors must agree
// on the trailing axes; the result takes the element type of the first one.
func Cat(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrShape)
	}
	first := ts[0]
	if first.Dim() == 0 {
		return nil, fmt.Errorf("%w: cannot concatenate scalars", ErrShape)
	}
	shape := append([]int(nil), first.Shape...)
	shape[0] = 0
	total := 0
	for i, t := range ts {
		if t.Dim() != first.Dim() || !sameShape(t.Shape[1:], first.Shape[1:]) {
			return nil, fmt.Errorf("%w: tensor %d has shape %v, expected [* %v]", ErrShape, i, t.Shape, first.Shape[1:])
		}
		shape[0] += t.Shape[0]
		total += len(t.Data)
	}
	data := make([]float64, 0, total)
	for _, t := range ts {
		data = append(data, t.Data...)
	}
	return &Tensor{Shape: shape, Data: data, DType: first.DType}, nil
}

// Equal reports whether both tensors have the same shape and values.
// NaN values compare equal to each other.
func (t *Tensor) Equal(o *Tensor) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !sameShape(t.Shape, o.Shape) {
		return false
	}
	for i, v := range t.Data {
		w := o.Data[i]
		if v != w && !(math.IsNaN(v) && math.IsNaN(w)) {
			return false
		}
	}
	return true
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Array is a plain numeric buffer without an element type tag, the shape in
// which volumes usually arrive from image readers.
type Array struct {
	Shape  []int
	Values []float64
}

// NewArray creates an array over values. The values slice is not copied.
func NewArray(shape []int, values []float64) (*Array, error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(values) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShape, shape, n, len(values))
	}
	return &Array{Shape: append([]int(nil), shape...), Values: values}, nil
}

// Dim returns the number of dimensions
func (a *Array) Dim() int {
	return len(a.Shape)
}

// FromArray wraps an array as a float64 tensor sharing its memory
func FromArray(a *Array) *Tensor {
	return &Tensor{Shape: append([]int(nil), a.Shape...), Data: a.Values, DType: Float64}
}

// Array returns the tensor's values as an array sharing its memory
func (t *Tensor) Array() *Array {
	return &Array{Shape: append([]int(nil), t.Shape...), Values: t.Data}
}
