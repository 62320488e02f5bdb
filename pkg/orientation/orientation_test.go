package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medaugment/pkg/data"
	"medaugment/pkg/tensor"
)

func obliqueAffine() data.Affine {
	theta := math.Pi / 6
	a := data.Identity()
	// rotation about z with spacing (0.5, 2, 3)
	a[0][0], a[0][1] = math.Cos(theta)*0.5, -math.Sin(theta)*2
	a[1][0], a[1][1] = math.Sin(theta)*0.5, math.Cos(theta)*2
	a[2][2] = 3
	a[0][3], a[1][3], a[2][3] = -90, 126, -72
	return a
}

func volume(t *testing.T) *tensor.Tensor {
	t.Helper()
	values := make([]float64, 2*3*4)
	for i := range values {
		values[i] = float64(i) * 1.5
	}
	v, err := tensor.New([]int{2, 3, 4}, values, tensor.Float64)
	require.NoError(t, err)
	return v
}

func TestNibToITKGeometry(t *testing.T) {
	affine := obliqueAffine()
	img, err := NibToITK(volume(t), affine)
	require.NoError(t, err)

	assert.Equal(t, [3]int{2, 3, 4}, img.Size)
	assert.InDeltaSlice(t, []float64{0.5, 2, 3}, img.Spacing[:], 1e-12)
	assert.InDeltaSlice(t, []float64{90, -126, -72}, img.Origin[:], 1e-12)

	// every voxel lands on the same world point, up to the RAS/LPS flip
	for _, idx := range [][3]int{{0, 0, 0}, {1, 2, 3}, {1, 0, 2}} {
		var ras [3]float64
		for r := 0; r < 3; r++ {
			ras[r] = affine[r][3]
			for c := 0; c < 3; c++ {
				ras[r] += affine[r][c] * float64(idx[c])
			}
		}
		lps := img.PhysicalPoint(idx[0], idx[1], idx[2])
		assert.InDelta(t, -ras[0], lps[0], 1e-9)
		assert.InDelta(t, -ras[1], lps[1], 1e-9)
		assert.InDelta(t, ras[2], lps[2], 1e-9)
	}
}

func TestNibToITKPixelOrder(t *testing.T) {
	vol := volume(t)
	img, err := NibToITK(vol.Unsqueeze(), data.Identity())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				assert.Equal(t, vol.At(i, j, k), img.Pixels[i+j*2+k*6])
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	vol := volume(t)
	affine := obliqueAffine()

	img, err := NibToITK(vol, affine)
	require.NoError(t, err)
	back, backAffine, err := ITKToNib(img)
	require.NoError(t, err)

	assert.True(t, back.Equal(vol))
	for r := 0; r < 4; r++ {
		assert.InDeltaSlice(t, affine[r][:], backAffine[r][:], 1e-9)
	}
}

func TestConversionErrors(t *testing.T) {
	_, err := NibToITK(tensor.Zeros(2, 2, 2, 2), data.Identity())
	assert.Error(t, err)
	_, err = NibToITK(nil, data.Identity())
	assert.Error(t, err)
	_, err = NibToITK(tensor.Zeros(1, 1, 1), data.Affine{})
	assert.Error(t, err)

	_, _, err = ITKToNib(&ITKImage{Size: [3]int{2, 2, 2}, Pixels: make([]float64, 7)})
	assert.Error(t, err)
	_, _, err = ITKToNib(nil)
	assert.Error(t, err)
}
