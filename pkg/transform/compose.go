package transform

import (
	"context"

	"medaugment/pkg/data"
)

// Compose chains invokers. Each step makes its own skip decision.
type Compose struct {
	steps []*Invoker
}

// NewCompose creates a Compose running steps in order
func NewCompose(steps ...*Invoker) *Compose {
	return &Compose{steps: steps}
}

// Steps returns the chained invokers
func (c *Compose) Steps() []*Invoker {
	return c.steps
}

// ApplyTransform runs every step on the sample, stopping at the first error
func (c *Compose) ApplyTransform(ctx context.Context, sample *data.Subject) (*data.Subject, error) {
	for _, step := range c.steps {
		out, err := step.Invoke(ctx, FromSubject(sample))
		if err != nil {
			return nil, err
		}
		sample = out.Subject()
	}
	return sample, nil
}
