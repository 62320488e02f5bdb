package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserveInvocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveInvocation("Flip", "applied", 0.01)
	m.ObserveInvocation("Flip", "applied", 0.02)
	m.ObserveInvocation("Flip", "skipped", 0)
	m.ObserveInvocation("RescaleIntensity", "failed", 0.001)

	if got := testutil.ToFloat64(m.invocations.WithLabelValues("Flip", "applied")); got != 2 {
		t.Fatalf("expected 2 applied, got %f", got)
	}
	if got := testutil.ToFloat64(m.invocations.WithLabelValues("Flip", "skipped")); got != 1 {
		t.Fatalf("expected 1 skipped, got %f", got)
	}
	if got := testutil.ToFloat64(m.invocations.WithLabelValues("RescaleIntensity", "failed")); got != 1 {
		t.Fatalf("expected 1 failed, got %f", got)
	}
	if n := testutil.CollectAndCount(m.latency); n != 2 {
		t.Fatalf("expected latency series for 2 transforms, got %d", n)
	}
}

func TestMetricsRejectedHasNoLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveInvocation("Flip", "rejected", 0)
	m.ObserveInvocation("Flip", "skipped", 0)

	if got := testutil.ToFloat64(m.invocations.WithLabelValues("Flip", "rejected")); got != 1 {
		t.Fatalf("expected 1 rejected, got %f", got)
	}
	if n := testutil.CollectAndCount(m.latency); n != 0 {
		t.Fatalf("expected no latency series, got %d", n)
	}
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
