package augment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"medaugment/pkg/data"
	"medaugment/pkg/numeric"
)

// RescaleIntensity linearly maps the range of each intensity image onto
// [OutMin, OutMax]. Label images are left alone.
type RescaleIntensity struct {
	OutMin float64
	OutMax float64
}

// NewRescaleIntensity creates a RescaleIntensity with the given output range
func NewRescaleIntensity(outMin, outMax float64) (*RescaleIntensity, error) {
	if outMin >= outMax {
		return nil, fmt.Errorf("rescale output range must be increasing, got [%g, %g]", outMin, outMax)
	}
	return &RescaleIntensity{OutMin: outMin, OutMax: outMax}, nil
}

// ApplyTransform rescales every intensity image. An image with a single
// value has an empty input range and raises a divide by zero fault.
func (r *RescaleIntensity) ApplyTransform(ctx context.Context, s *data.Subject) (*data.Subject, error) {
	for _, name := range s.Names() {
		img := s.Images[name]
		if img.Type != data.Intensity || img.Data.Len() == 0 {
			continue
		}
		values := img.Data.Data
		lo, hi := floats.Min(values), floats.Max(values)
		scale := numeric.Div(ctx, r.OutMax-r.OutMin, hi-lo)
		for i, v := range values {
			values[i] = numeric.Add(ctx, numeric.Mul(ctx, v-lo, scale), r.OutMin)
		}
	}
	return s, nil
}
