// Package visualization renders 2D previews of transformed volumes so that
// augmentation results can be inspected by eye.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"medaugment/pkg/data"
)

// Viewer extracts axis-aligned slices from a single image of a sample
type Viewer struct {
	// volumeData holds the voxels in (depth, height, width) row-major order
	volumeData []float64

	// dimensions of the volume
	width  int
	height int
	depth  int

	// lo and hi are the intensities mapped to black and white
	lo float64
	hi float64
}

// NewViewer creates a viewer over img, windowed to its intensity range
func NewViewer(img *data.Image) (*Viewer, error) {
	if img == nil || img.Data == nil {
		return nil, fmt.Errorf("image has no data")
	}
	if img.Data.Dim() != 4 || img.Data.Shape[0] != 1 {
		return nil, fmt.Errorf("expected an image of shape (1, D, H, W), got %v", img.Data.Shape)
	}
	shape := img.SpatialShape()
	v := &Viewer{
		volumeData: img.Data.Data,
		depth:      shape[0],
		height:     shape[1],
		width:      shape[2],
	}
	if len(v.volumeData) > 0 {
		v.lo, v.hi = floats.Min(v.volumeData), floats.Max(v.volumeData)
	}
	return v, nil
}

// gray16 maps an intensity onto the 16-bit gray range
func (v *Viewer) gray16(value float64) color.Gray16 {
	if v.hi <= v.lo || math.IsNaN(value) {
		return color.Gray16{}
	}
	norm := (value - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, norm*65535)))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
// (x = width, y = height, z = depth)
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetGray16(z, y, v.gray16(v.volumeData[z*v.width*v.height+y*v.width+position]))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, z, v.gray16(v.volumeData[z*v.width*v.height+position*v.width+x]))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, y, v.gray16(v.volumeData[position*v.width*v.height+y*v.width+x]))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
