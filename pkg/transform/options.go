package transform

import (
	"log/slog"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

type options struct {
	probability float64
	name        string
	draw        func() float64
	logger      *slog.Logger
	observer    Observer
}

// Option configures an Invoker
type Option func(*options)

// WithProbability sets the probability that the transform is applied
func WithProbability(p float64) Option {
	return func(o *options) {
		o.probability = p
	}
}

// WithName overrides the name used in logs and metrics
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithRandom sets the source of the uniform [0, 1) draw deciding whether
// the transform runs. The function must be safe for concurrent use.
func WithRandom(draw func() float64) Option {
	return func(o *options) {
		o.draw = draw
	}
}

// WithSeed makes the skip decisions reproducible
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.draw = seededDraw(seed)
	}
}

// WithLogger sets the logger, the process logger is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver reports every invocation outcome to obs
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// uniformDraw uses the locked global source, safe for concurrent callers
func uniformDraw() func() float64 {
	u := distuv.Uniform{Min: 0, Max: 1}
	return u.Rand
}

func seededDraw(seed uint64) func() float64 {
	u := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)}
	var mu sync.Mutex
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return u.Rand()
	}
}
