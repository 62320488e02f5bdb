// Package orientation converts between the voxel array + affine
// representation used by the data package (RAS+ world coordinates, first
// index slowest) and the ITK image representation (LPS+ world coordinates,
// origin / spacing / direction, first index fastest).
package orientation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"medaugment/pkg/data"
	"medaugment/pkg/tensor"
)

// flipXY converts between RAS and LPS
var flipXY = mat.NewDiagDense(3, []float64{-1, -1, 1})

// ITKImage is a 3D scalar image in ITK conventions
type ITKImage struct {
	// Size is the number of voxels along x, y, z
	Size [3]int

	// Spacing is the voxel size along x, y, z in mm
	Spacing [3]float64

	// Origin is the LPS position of the first voxel
	Origin [3]float64

	// Direction holds the axis cosines as a row-major 3x3 matrix
	Direction [9]float64

	// Pixels holds the values with x varying fastest
	Pixels []float64
}

// PhysicalPoint returns the LPS position of voxel (x, y, z)
func (img *ITKImage) PhysicalPoint(x, y, z int) [3]float64 {
	idx := [3]float64{float64(x), float64(y), float64(z)}
	var p [3]float64
	for r := 0; r < 3; r++ {
		p[r] = img.Origin[r]
		for c := 0; c < 3; c++ {
			p[r] += img.Direction[r*3+c] * img.Spacing[c] * idx[c]
		}
	}
	return p
}

// NibToITK converts a (D, H, W) or (1, D, H, W) tensor and its RAS affine to an ITK image
func NibToITK(t *tensor.Tensor, affine data.Affine) (*ITKImage, error) {
	if t == nil {
		return nil, fmt.Errorf("tensor is nil")
	}
	shape := t.Shape
	switch {
	case len(shape) == 4 && shape[0] == 1:
		shape = shape[1:]
	case len(shape) == 3:
	default:
		return nil, fmt.Errorf("expected a 3D volume, got shape %v", t.Shape)
	}
	ni, nj, nk := shape[0], shape[1], shape[2]

	m := affine.Matrix()
	rzs := m.Slice(0, 3, 0, 3)

	img := &ITKImage{Size: [3]int{ni, nj, nk}}
	rotation := mat.NewDense(3, 3, nil)
	for c := 0; c < 3; c++ {
		norm := mat.Norm(rzs.(*mat.Dense).ColView(c), 2)
		if norm == 0 {
			return nil, fmt.Errorf("affine column %d has zero length", c)
		}
		img.Spacing[c] = norm
		for r := 0; r < 3; r++ {
			rotation.Set(r, c, rzs.At(r, c)/norm)
		}
	}

	var direction mat.Dense
	direction.Mul(flipXY, rotation)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			img.Direction[r*3+c] = direction.At(r, c)
		}
	}

	var origin mat.VecDense
	origin.MulVec(flipXY, m.Slice(0, 3, 3, 4).(*mat.Dense).ColView(0))
	for r := 0; r < 3; r++ {
		img.Origin[r] = origin.AtVec(r)
	}

	img.Pixels = make([]float64, len(t.Data))
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < nk; k++ {
				img.Pixels[i+j*ni+k*ni*nj] = t.Data[i*nj*nk+j*nk+k]
			}
		}
	}
	return img, nil
}

// ITKToNib converts an ITK image back to a (D, H, W) float64 tensor and its RAS affine
func ITKToNib(img *ITKImage) (*tensor.Tensor, data.Affine, error) {
	if img == nil {
		return nil, data.Affine{}, fmt.Errorf("image is nil")
	}
	ni, nj, nk := img.Size[0], img.Size[1], img.Size[2]
	if ni*nj*nk != len(img.Pixels) {
		return nil, data.Affine{}, fmt.Errorf("image size %v does not match %d pixels", img.Size, len(img.Pixels))
	}

	direction := mat.NewDense(3, 3, img.Direction[:])
	var rotation mat.Dense
	rotation.Mul(flipXY, direction)

	var translation mat.VecDense
	translation.MulVec(flipXY, mat.NewVecDense(3, img.Origin[:]))

	affine := data.Identity()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			affine[r][c] = rotation.At(r, c) * img.Spacing[c]
		}
		affine[r][3] = translation.AtVec(r)
	}

	values := make([]float64, len(img.Pixels))
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < nk; k++ {
				values[i*nj*nk+j*nk+k] = img.Pixels[i+j*ni+k*ni*nj]
			}
		}
	}
	t, err := tensor.New([]int{ni, nj, nk}, values, tensor.Float64)
	if err != nil {
		return nil, data.Affine{}, err
	}
	return t, affine, nil
}
