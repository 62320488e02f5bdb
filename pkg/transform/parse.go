package transform

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"medaugment/internal/logging"
	"medaugment/pkg/data"
	"medaugment/pkg/interpolation"
	"medaugment/pkg/tensor"
)

// ParseProbability checks that p is a real number in [0, 1] and returns it as float64.
// Any integer or floating point kind is accepted.
func ParseProbability(p any) (float64, error) {
	var v float64
	rv := reflect.ValueOf(p)
	switch {
	case !rv.IsValid():
		return 0, &ValidationError{Field: "probability", Reason: "must be a number in [0, 1], not <nil>"}
	case rv.CanFloat():
		v = rv.Float()
	case rv.CanInt():
		v = float64(rv.Int())
	case rv.CanUint():
		v = float64(rv.Uint())
	default:
		return 0, &ValidationError{
			Field:  "probability",
			Reason: fmt.Sprintf("must be a number in [0, 1], not %v (%T)", p, p),
		}
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, &ValidationError{
			Field:  "probability",
			Reason: fmt.Sprintf("must be a number in [0, 1], not %v", p),
		}
	}
	return v, nil
}

// ParseSample checks that s was produced by a data.Dataset
func ParseSample(s *data.Subject) error {
	if s == nil || !s.IsSample {
		received := "<nil>"
		if s != nil {
			received = fmt.Sprintf("%T without the sample flag", s)
		}
		return &ValidationError{
			Field: "sample",
			Reason: fmt.Sprintf("input to a transform must be a tensor, an array or"+
				" a subject generated by a dataset, not %q", received),
		}
	}
	return nil
}

// ParseInterpolation resolves an interpolation given by name, ignoring case.
// Passing an interpolation.Interpolation value is still accepted but logs a
// deprecation warning.
func ParseInterpolation(v any) (interpolation.Interpolation, error) {
	switch x := v.(type) {
	case interpolation.Interpolation:
		logging.L().Warn("interpolation given as interpolation.Interpolation is deprecated, please use a string instead",
			"interpolation", x.String())
		return x, nil
	case string:
		mode, ok := interpolation.Lookup(x)
		if !ok {
			return 0, &LookupError{Name: x, Supported: interpolation.Names()}
		}
		return mode, nil
	default:
		return 0, &ValidationError{
			Field:  "interpolation",
			Reason: fmt.Sprintf("must be a string, not %T", v),
		}
	}
}

// parseTensor converts a raw buffer to a float sample with one intensity
// image per leading-axis slice, named channel_0, channel_1, ...
func parseTensor(ctx context.Context, t *tensor.Tensor) (*data.Subject, error) {
	t = t.Float()
	if t.Dim() != 4 {
		return nil, &ValidationError{
			Field: "input",
			Reason: fmt.Sprintf("the input tensor must have 4 dimensions (channels, i, j, k),"+
				" but has %d: %v", t.Dim(), t.Shape),
		}
	}
	if err := t.CheckShape(); err != nil {
		return nil, &ValidationError{Field: "input", Reason: err.Error()}
	}
	if t.Shape[0] == 0 {
		return nil, &ValidationError{
			Field:  "input",
			Reason: fmt.Sprintf("the input tensor has no channels: %v", t.Shape),
		}
	}
	return subjectFromTensor(ctx, t)
}

func channelName(i int) string {
	return fmt.Sprintf("channel_%d", i)
}

func subjectFromTensor(ctx context.Context, t *tensor.Tensor) (*data.Subject, error) {
	images := make(map[string]*data.Image, t.Shape[0])
	for i := 0; i < t.Shape[0]; i++ {
		channel, err := t.Index(i)
		if err != nil {
			return nil, err
		}
		img, err := data.NewImage(channel, data.Intensity)
		if err != nil {
			return nil, err
		}
		images[channelName(i)] = img
	}
	dataset, err := data.NewDataset([]*data.Subject{data.NewSubject(images)})
	if err != nil {
		return nil, err
	}
	return dataset.At(ctx, 0)
}
