// Package telemetry exports Prometheus metrics for transform invocations.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts invocation outcomes per transform and times applied transforms
type Metrics struct {
	invocations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medaugment_invocations_total",
			Help: "Transform invocations by outcome (applied, skipped, failed, rejected).",
		}, []string{"transform", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medaugment_transform_seconds",
			Help:    "Time spent inside applied transforms.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"transform"}),
	}
	for _, c := range []prometheus.Collector{m.invocations, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveInvocation records one invocation of the named transform. Latency
// is only recorded for outcomes where the transform ran.
func (m *Metrics) ObserveInvocation(transform, outcome string, seconds float64) {
	m.invocations.WithLabelValues(transform, outcome).Inc()
	switch outcome {
	case "applied", "failed":
		m.latency.WithLabelValues(transform).Observe(seconds)
	}
}

// Expose serves the default registry on /metrics in the background
func Expose(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	}()
}
