// Package numeric provides a strict floating point scope for transforms.
//
// Go arithmetic never traps: overflow, invalid operations and division by
// zero silently produce Inf or NaN. Code running inside an Errstate bracket
// in Raise mode uses the checked operations of this package, which abort the
// bracket with a *Fault instead of producing a non-finite value.
//
// The mode travels in the context, so concurrent brackets never interfere and
// leaving a bracket restores the caller's mode on every exit path.
package numeric

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrNumeric is matched by every floating point fault
var ErrNumeric = errors.New("floating point error")

// Kind classifies a floating point fault
type Kind int

const (
	DivideByZero Kind = iota
	Overflow
	Invalid
)

// String returns the conventional name of the fault kind
func (k Kind) String() string {
	switch k {
	case DivideByZero:
		return "divide by zero"
	case Overflow:
		return "overflow"
	case Invalid:
		return "invalid value"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fault describes a floating point fault raised in strict mode
type Fault struct {
	Op   string
	Kind Kind
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%v: %s encountered in %s", ErrNumeric, f.Kind, f.Op)
}

func (f *Fault) Unwrap() error {
	return ErrNumeric
}

// Mode selects what checked operations do on a fault
type Mode int

const (
	// Ignore returns the IEEE 754 result
	Ignore Mode = iota

	// Raise aborts the enclosing Errstate bracket
	Raise
)

type modeKey struct{}

// WithMode returns a context carrying the given mode
func WithMode(ctx context.Context, m Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, m)
}

// ModeFrom returns the mode carried by ctx, Ignore if none
func ModeFrom(ctx context.Context) Mode {
	if m, ok := ctx.Value(modeKey{}).(Mode); ok {
		return m
	}
	return Ignore
}

// Errstate runs fn with the given mode. A fault raised by a checked
// operation inside fn is returned as the bracket's error; any other panic
// is propagated.
func Errstate(ctx context.Context, mode Mode, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			err = f
		}
	}()
	return fn(WithMode(ctx, mode))
}

func raise(ctx context.Context, op string, kind Kind) {
	if ModeFrom(ctx) == Raise {
		panic(&Fault{Op: op, Kind: kind})
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// classify reports a fault when finite operands produced a non-finite result
func classify(ctx context.Context, op string, r float64, operands ...float64) float64 {
	if !finite(operands...) {
		return r
	}
	switch {
	case math.IsNaN(r):
		raise(ctx, op, Invalid)
	case math.IsInf(r, 0):
		raise(ctx, op, Overflow)
	}
	return r
}

// Div returns a / b
func Div(ctx context.Context, a, b float64) float64 {
	if b == 0 && finite(a) {
		if a == 0 {
			raise(ctx, "divide", Invalid)
		} else {
			raise(ctx, "divide", DivideByZero)
		}
		return a / b
	}
	return classify(ctx, "divide", a/b, a, b)
}

// Mul returns a * b
func Mul(ctx context.Context, a, b float64) float64 {
	return classify(ctx, "multiply", a*b, a, b)
}

// Add returns a + b
func Add(ctx context.Context, a, b float64) float64 {
	return classify(ctx, "add", a+b, a, b)
}

// Sub returns a - b
func Sub(ctx context.Context, a, b float64) float64 {
	return classify(ctx, "subtract", a-b, a, b)
}

// Log returns the natural logarithm of x
func Log(ctx context.Context, x float64) float64 {
	switch {
	case x == 0:
		raise(ctx, "log", DivideByZero)
	case x < 0:
		raise(ctx, "log", Invalid)
	}
	return math.Log(x)
}

// Sqrt returns the square root of x
func Sqrt(ctx context.Context, x float64) float64 {
	if x < 0 {
		raise(ctx, "sqrt", Invalid)
	}
	return math.Sqrt(x)
}

// CountNonFinite returns how many values are NaN or infinite
func CountNonFinite(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			n++
		}
	}
	return n
}
