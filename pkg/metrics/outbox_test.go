package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsPerLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished("retrostore.orders")
	m.IncPublished("retrostore.orders")
	m.IncFailed("retrostore.ratings")
	m.IncDeadLettered("max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"retrostore_outbox_published_total", "topic", "retrostore.orders", 2},
		{"retrostore_outbox_publish_failures_total", "topic", "retrostore.ratings", 1},
		{"retrostore_outbox_dead_lettered_total", "reason", "max_attempts", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s{%s=%q} = %v, want %v", c.name, c.label, c.value, got, c.want)
		}
	}
}

func TestOutboxMetricsLabelsBlankReasonUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewOutboxMetrics(reg).IncDeadLettered("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "retrostore_outbox_dead_lettered_total", "reason", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown reason label, got %f (%v)", got, err)
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("x")
	NewOutboxMetrics(nil).IncDeadLettered("y")
}
