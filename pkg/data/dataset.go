package data

import (
	"context"
	"fmt"
)

// TransformFunc is applied to every sample a Dataset hands out
type TransformFunc func(ctx context.Context, s *Subject) (*Subject, error)

// Dataset is an indexed collection of subjects.
// Each retrieval returns an independent copy marked as a sample.
type Dataset struct {
	subjects  []*Subject
	transform TransformFunc
}

// DatasetOption configures a Dataset
type DatasetOption func(*Dataset)

// WithTransform sets a transform applied to each sample on retrieval
func WithTransform(fn TransformFunc) DatasetOption {
	return func(d *Dataset) {
		d.transform = fn
	}
}

// NewDataset creates a dataset over the given subjects
func NewDataset(subjects []*Subject, opts ...DatasetOption) (*Dataset, error) {
	for i, s := range subjects {
		if s == nil {
			return nil, fmt.Errorf("subject %d is nil", i)
		}
		if len(s.Images) == 0 {
			return nil, fmt.Errorf("subject %d has no images", i)
		}
	}
	d := &Dataset{subjects: subjects}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Len returns the number of subjects
func (d *Dataset) Len() int {
	return len(d.subjects)
}

// At returns the i-th sample
func (d *Dataset) At(ctx context.Context, i int) (*Subject, error) {
	if i < 0 || i >= len(d.subjects) {
		return nil, fmt.Errorf("index %d out of range for dataset of %d subjects", i, len(d.subjects))
	}
	sample, err := d.subjects[i].DeepCopy()
	if err != nil {
		return nil, err
	}
	sample.IsSample = true
	if d.transform != nil {
		return d.transform(ctx, sample)
	}
	return sample, nil
}
