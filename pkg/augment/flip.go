// Package augment holds small concrete transforms used by the command line
// tool and as examples of implementing transform.Transform.
package augment

import (
	"context"
	"fmt"

	"medaugment/pkg/data"
)

// Flip mirrors every image of a sample along the given spatial axes
// (0 = depth, 1 = height, 2 = width)
type Flip struct {
	axes []int
}

// NewFlip creates a Flip over axes
func NewFlip(axes ...int) (*Flip, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("flip needs at least one axis")
	}
	for _, a := range axes {
		if a < 0 || a > 2 {
			return nil, fmt.Errorf("flip axis must be 0, 1 or 2, got %d", a)
		}
	}
	return &Flip{axes: append([]int(nil), axes...)}, nil
}

// Axes returns the flipped axes
func (f *Flip) Axes() []int {
	return append([]int(nil), f.axes...)
}

// ApplyTransform flips label and intensity images alike
func (f *Flip) ApplyTransform(_ context.Context, s *data.Subject) (*data.Subject, error) {
	var flip [3]bool
	for _, a := range f.axes {
		flip[a] = !flip[a]
	}
	for _, name := range s.Names() {
		img := s.Images[name]
		shape := img.SpatialShape()
		depth, height, width := shape[0], shape[1], shape[2]
		src := img.Data.Data
		dst := make([]float64, len(src))

		for z := 0; z < depth; z++ {
			sz := z
			if flip[0] {
				sz = depth - 1 - z
			}
			for y := 0; y < height; y++ {
				sy := y
				if flip[1] {
					sy = height - 1 - y
				}
				for x := 0; x < width; x++ {
					sx := x
					if flip[2] {
						sx = width - 1 - x
					}
					dst[z*width*height+y*width+x] = src[sz*width*height+sy*width+sx]
				}
			}
		}
		img.Data.Data = dst
	}
	return s, nil
}
