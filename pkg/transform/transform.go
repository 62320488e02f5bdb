// Package transform implements the invocation protocol shared by every
// augmentation transform.
//
// A concrete transform only implements ApplyTransform. An Invoker wraps it and
// takes care of everything around that call:
//
//  1. Raw 4D buffers are converted to float and turned into a sample with one
//     intensity image per channel; dataset samples are used as they are
//  2. The sample is validated
//  3. A uniform draw decides whether the transform runs at all; when it does
//     not, the caller's input is returned untouched
//  4. The sample is deep-copied and transformed inside a strict floating
//     point scope
//  5. The result is returned in the same shape the caller supplied
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"medaugment/internal/logging"
	"medaugment/pkg/data"
	"medaugment/pkg/numeric"
	"medaugment/pkg/tensor"
)

// Transform is the operation a concrete augmentation provides. It receives
// a private copy of the sample, may modify it freely, and returns the
// transformed sample.
type Transform interface {
	ApplyTransform(ctx context.Context, sample *data.Subject) (*data.Subject, error)
}

// TransformFunc adapts a function to the Transform interface
type TransformFunc func(ctx context.Context, sample *data.Subject) (*data.Subject, error)

// ApplyTransform calls f
func (f TransformFunc) ApplyTransform(ctx context.Context, sample *data.Subject) (*data.Subject, error) {
	return f(ctx, sample)
}

// Observer receives the outcome of every invocation: applied, skipped,
// failed (the transform ran and returned an error) or rejected (the input
// was invalid and the transform never ran). seconds is only meaningful for
// applied and failed.
type Observer interface {
	ObserveInvocation(transform, outcome string, seconds float64)
}

const (
	outcomeApplied  = "applied"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// Invoker applies a Transform with probability p
type Invoker struct {
	transform   Transform
	name        string
	probability float64
	draw        func() float64
	logger      *slog.Logger
	observer    Observer
}

// NewInvoker wraps t. The probability defaults to 1 and the name to the
// type name of t.
func NewInvoker(t Transform, opts ...Option) (*Invoker, error) {
	if t == nil {
		return nil, &ValidationError{Field: "transform", Reason: "must not be nil"}
	}
	o := options{probability: 1.0}
	for _, opt := range opts {
		opt(&o)
	}
	p, err := ParseProbability(o.probability)
	if err != nil {
		return nil, err
	}
	inv := &Invoker{
		transform:   t,
		name:        o.name,
		probability: p,
		draw:        o.draw,
		logger:      o.logger,
		observer:    o.observer,
	}
	if inv.name == "" {
		inv.name = typeName(t)
	}
	if inv.draw == nil {
		inv.draw = uniformDraw()
	}
	return inv, nil
}

func typeName(v any) string {
	typ := reflect.TypeOf(v)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Name() == "" {
		return fmt.Sprintf("%T", v)
	}
	return typ.Name()
}

// Name identifies the transform in logs and metrics
func (inv *Invoker) Name() string {
	return inv.name
}

// Probability returns the probability the transform is applied
func (inv *Invoker) Probability() float64 {
	return inv.probability
}

func (inv *Invoker) log() *slog.Logger {
	if inv.logger != nil {
		return inv.logger
	}
	return logging.L()
}

func (inv *Invoker) observe(outcome string, since time.Time) {
	if inv.observer == nil {
		return
	}
	var seconds float64
	if !since.IsZero() {
		seconds = time.Since(since).Seconds()
	}
	inv.observer.ObserveInvocation(inv.name, outcome, seconds)
}

// Invoke transforms in and returns the result in the same kind as in.
// When the transform is skipped, in itself is returned.
func (inv *Invoker) Invoke(ctx context.Context, in Input) (Output, error) {
	sample, err := inv.parseInput(ctx, in)
	if err != nil {
		inv.observe(outcomeRejected, time.Time{})
		return Output{}, err
	}
	if err := ParseSample(sample); err != nil {
		inv.observe(outcomeRejected, time.Time{})
		return Output{}, err
	}

	if u := inv.draw(); u > inv.probability {
		inv.log().Debug("transform skipped", "transform", inv.name, "draw", u, "probability", inv.probability)
		inv.observe(outcomeSkipped, time.Time{})
		return in, nil
	}

	start := time.Now()
	out, err := inv.apply(ctx, sample, in)
	if err != nil {
		inv.log().Debug("transform failed", "transform", inv.name, "error", err)
		inv.observe(outcomeFailed, start)
		return Output{}, err
	}
	inv.log().Debug("transform applied", "transform", inv.name, "input", in.Kind().String(),
		"elapsed", time.Since(start))
	inv.observe(outcomeApplied, start)
	return out, nil
}

func (inv *Invoker) parseInput(ctx context.Context, in Input) (*data.Subject, error) {
	switch in.Kind() {
	case KindSubject:
		return in.Subject(), nil
	case KindTensor, KindArray:
		t := in.rawTensor()
		if t == nil {
			return nil, &ValidationError{Field: "input", Reason: fmt.Sprintf("%s is nil", in.Kind())}
		}
		return parseTensor(ctx, t)
	default:
		return nil, &ValidationError{
			Field:  "input",
			Reason: "input to a transform must be a tensor, an array or a subject generated by a dataset, not \"<nil>\"",
		}
	}
}

func (inv *Invoker) apply(ctx context.Context, sample *data.Subject, in Input) (Output, error) {
	working, err := sample.DeepCopy()
	if err != nil {
		return Output{}, err
	}
	before := countNonFinite(working)

	var transformed *data.Subject
	err = numeric.Errstate(ctx, numeric.Raise, func(ctx context.Context) error {
		var err error
		transformed, err = inv.transform.ApplyTransform(ctx, working)
		return err
	})
	if err != nil {
		var nerr *NumericError
		var fault *numeric.Fault
		if errors.As(err, &nerr) {
			return Output{}, err
		}
		if errors.As(err, &fault) {
			return Output{}, &NumericError{Transform: inv.name, Fault: fault}
		}
		return Output{}, err
	}
	if transformed == nil {
		return Output{}, fmt.Errorf("%s: transform returned a nil sample", inv.name)
	}
	if after := countNonFinite(transformed); after > before {
		return Output{}, &NumericError{Transform: inv.name, Count: after - before}
	}

	if !in.IsRaw() {
		return FromSubject(transformed), nil
	}
	return inv.collectChannels(transformed, in)
}

// collectChannels concatenates channel_0..channel_{C-1} back into a buffer
// of the caller's kind
func (inv *Invoker) collectChannels(s *data.Subject, in Input) (Output, error) {
	channels := in.rawTensor().Shape[0]
	parts := make([]*tensor.Tensor, 0, channels)
	for i := 0; i < channels; i++ {
		img, ok := s.Get(channelName(i))
		if !ok || img == nil || img.Data == nil {
			return Output{}, fmt.Errorf("%s: transformed sample has no image %q", inv.name, channelName(i))
		}
		parts = append(parts, img.Data)
	}
	joined, err := tensor.Cat(parts)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", inv.name, err)
	}
	if in.Kind() == KindArray {
		return FromArray(joined.Array()), nil
	}
	return FromTensor(joined), nil
}

func countNonFinite(s *data.Subject) int {
	n := 0
	for _, img := range s.Images {
		if img != nil && img.Data != nil {
			n += numeric.CountNonFinite(img.Data.Data)
		}
	}
	return n
}

// DatasetTransform adapts the invoker for use with data.WithTransform
func (inv *Invoker) DatasetTransform() data.TransformFunc {
	return func(ctx context.Context, s *data.Subject) (*data.Subject, error) {
		out, err := inv.Invoke(ctx, FromSubject(s))
		if err != nil {
			return nil, err
		}
		return out.Subject(), nil
	}
}
