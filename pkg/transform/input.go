package transform

import (
	"medaugment/pkg/data"
	"medaugment/pkg/tensor"
)

// Kind identifies which of the accepted shapes an Input holds
type Kind int

const (
	KindNone Kind = iota
	KindSubject
	KindTensor
	KindArray
)

// String returns a readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindSubject:
		return "subject"
	case KindTensor:
		return "tensor"
	case KindArray:
		return "array"
	default:
		return "none"
	}
}

// Input is what a caller hands to Invoke: a dataset sample, or a raw 4D
// (C, D, H, W) buffer either as a tensor or as a plain array.
type Input struct {
	kind    Kind
	subject *data.Subject
	tensor  *tensor.Tensor
	array   *tensor.Array
}

// Output has the same kind as the Input it was produced from
type Output = Input

// FromSubject wraps a sample produced by a data.Dataset
func FromSubject(s *data.Subject) Input {
	return Input{kind: KindSubject, subject: s}
}

// FromTensor wraps a 4D tensor
func FromTensor(t *tensor.Tensor) Input {
	return Input{kind: KindTensor, tensor: t}
}

// FromArray wraps a 4D array
func FromArray(a *tensor.Array) Input {
	return Input{kind: KindArray, array: a}
}

// Kind returns the shape held
func (in Input) Kind() Kind {
	return in.kind
}

// IsRaw reports whether the input is a tensor or an array
func (in Input) IsRaw() bool {
	return in.kind == KindTensor || in.kind == KindArray
}

// Subject returns the held sample, nil for other kinds
func (in Input) Subject() *data.Subject {
	return in.subject
}

// Tensor returns the held tensor, nil for other kinds
func (in Input) Tensor() *tensor.Tensor {
	return in.tensor
}

// Array returns the held array, nil for other kinds
func (in Input) Array() *tensor.Array {
	return in.array
}

// rawTensor returns the raw buffer as a tensor, nil if absent
func (in Input) rawTensor() *tensor.Tensor {
	switch {
	case in.kind == KindTensor && in.tensor != nil:
		return in.tensor
	case in.kind == KindArray && in.array != nil:
		return tensor.FromArray(in.array)
	default:
		return nil
	}
}
