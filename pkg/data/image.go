// Package data provides the containers that carry medical images through the
// augmentation pipeline: labeled images, subjects grouping them by name, and
// datasets handing out isolated samples.
package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"medaugment/pkg/tensor"
)

// Type tags what kind of values an image holds
type Type string

const (
	// Intensity images hold scanner intensities and may be resampled with any interpolation
	Intensity Type = "intensity"

	// Label images hold segmentation labels and must keep discrete values
	Label Type = "label"
)

// Affine is a 4x4 homogeneous matrix mapping voxel indices to world coordinates (RAS+)
type Affine [4][4]float64

// Identity returns the identity affine
func Identity() Affine {
	var a Affine
	for i := 0; i < 4; i++ {
		a[i][i] = 1
	}
	return a
}

// Matrix returns the affine as a gonum dense matrix
func (a Affine) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m.Set(i, j, a[i][j])
		}
	}
	return m
}

// AffineFromMatrix copies a 4x4 gonum matrix into an Affine
func AffineFromMatrix(m mat.Matrix) (Affine, error) {
	var a Affine
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return a, fmt.Errorf("affine must be 4x4, got %dx%d", r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = m.At(i, j)
		}
	}
	return a, nil
}

// Spacing returns the voxel size along each axis (norms of the rotation-zoom columns)
func (a Affine) Spacing() [3]float64 {
	var spacing [3]float64
	for j := 0; j < 3; j++ {
		var sum float64
		for i := 0; i < 3; i++ {
			sum += a[i][j] * a[i][j]
		}
		spacing[j] = math.Sqrt(sum)
	}
	return spacing
}

// Inverse returns the inverse affine, mapping world coordinates back to voxel indices
func (a Affine) Inverse() (Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.Matrix()); err != nil {
		return Affine{}, fmt.Errorf("affine is not invertible: %w", err)
	}
	return AffineFromMatrix(&inv)
}

// Image is a single labeled volume with its spatial metadata
type Image struct {
	// Data holds the voxels with shape (1, D, H, W)
	Data *tensor.Tensor

	// Type tells transforms how the values may be treated
	Type Type

	// Affine maps voxel indices to world coordinates
	Affine Affine

	// Path is the file the image was read from, if any
	Path string
}

// NewImage creates an image from a 3D (D, H, W) or 4D (1, D, H, W) tensor
// with an identity affine. 3D tensors are given a leading channel axis.
func NewImage(t *tensor.Tensor, typ Type) (*Image, error) {
	if t == nil {
		return nil, fmt.Errorf("image tensor is nil")
	}
	switch t.Dim() {
	case 3:
		t = t.Unsqueeze()
	case 4:
		if t.Shape[0] != 1 {
			return nil, fmt.Errorf("image tensor must have a single channel, got shape %v", t.Shape)
		}
	default:
		return nil, fmt.Errorf("image tensor must have 3 or 4 dimensions, got %d: %v", t.Dim(), t.Shape)
	}
	if typ != Intensity && typ != Label {
		return nil, fmt.Errorf("unknown image type %q", typ)
	}
	return &Image{
		Data:   t,
		Type:   typ,
		Affine: Identity(),
	}, nil
}

// SpatialShape returns the (D, H, W) shape of the image
func (img *Image) SpatialShape() [3]int {
	s := img.Data.Shape
	return [3]int{s[1], s[2], s[3]}
}
