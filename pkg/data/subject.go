package data

import (
	"fmt"
	"sort"

	"github.com/mitchellh/copystructure"
)

// Subject groups the images of one patient or acquisition by name.
// Transforms only accept subjects handed out by a Dataset (IsSample set).
type Subject struct {
	// Images maps a channel name to its image
	Images map[string]*Image

	// Metadata holds free-form attributes carried along with the images
	Metadata map[string]string

	// IsSample marks a subject produced by a Dataset
	IsSample bool
}

// NewSubject creates a subject from a set of named images. The map is copied,
// the images are not.
func NewSubject(images map[string]*Image) *Subject {
	s := &Subject{
		Images:   make(map[string]*Image, len(images)),
		Metadata: make(map[string]string),
	}
	for name, img := range images {
		s.Images[name] = img
	}
	return s
}

// Get returns the image stored under name
func (s *Subject) Get(name string) (*Image, bool) {
	img, ok := s.Images[name]
	return img, ok
}

// Set stores img under name, replacing any existing image
func (s *Subject) Set(name string, img *Image) {
	if s.Images == nil {
		s.Images = make(map[string]*Image)
	}
	s.Images[name] = img
}

// Names returns the image names in sorted order
func (s *Subject) Names() []string {
	names := make([]string, 0, len(s.Images))
	for name := range s.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape returns the spatial shape shared by all images of the subject
func (s *Subject) Shape() ([3]int, error) {
	var shape [3]int
	names := s.Names()
	if len(names) == 0 {
		return shape, fmt.Errorf("subject has no images")
	}
	for i, name := range names {
		got := s.Images[name].SpatialShape()
		if i == 0 {
			shape = got
			continue
		}
		if got != shape {
			return shape, fmt.Errorf("image %q has shape %v, expected %v", name, got, shape)
		}
	}
	return shape, nil
}

// DeepCopy returns a structural copy of the subject that shares no memory with it
func (s *Subject) DeepCopy() (*Subject, error) {
	c, err := copystructure.Copy(s)
	if err != nil {
		return nil, fmt.Errorf("failed to copy subject: %w", err)
	}
	return c.(*Subject), nil
}
