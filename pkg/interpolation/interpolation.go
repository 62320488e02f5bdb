// Package interpolation enumerates the resampling strategies spatial
// transforms can use when mapping voxels onto a new grid.
package interpolation

import "strings"

// Interpolation is a named resampling strategy
type Interpolation int

const (
	// Nearest picks the closest voxel; the only safe choice for label maps
	Nearest Interpolation = iota
	Linear
	BSpline
	Gaussian
	LabelGaussian
	Hamming
	Cosine
	Welch
	Lanczos
	Blackman
)

var names = [...]string{
	Nearest:       "nearest",
	Linear:        "linear",
	BSpline:       "bspline",
	Gaussian:      "gaussian",
	LabelGaussian: "label_gaussian",
	Hamming:       "hamming",
	Cosine:        "cosine",
	Welch:         "welch",
	Lanczos:       "lanczos",
	Blackman:      "blackman",
}

// String returns the lowercase name of the mode
func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(names) {
		return "unknown"
	}
	return names[i]
}

// All returns every known mode in declaration order
func All() []Interpolation {
	modes := make([]Interpolation, len(names))
	for i := range names {
		modes[i] = Interpolation(i)
	}
	return modes
}

// Names returns the lowercase names of every known mode in declaration order
func Names() []string {
	return append([]string(nil), names[:]...)
}

// Lookup finds a mode by name, ignoring case and surrounding whitespace
func Lookup(name string) (Interpolation, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return Interpolation(i), true
		}
	}
	return 0, false
}
