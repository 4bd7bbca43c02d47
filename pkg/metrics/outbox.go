package metrics

import "github.com/prometheus/client_golang/prometheus"

const outboxNamespace = "retrostore"

// OutboxMetrics counts publisher outcomes per topic.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	deadLtr   *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: outboxNamespace,
		Name:      "outbox_published_total",
		Help:      "Outbox events delivered to the sink.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: outboxNamespace,
		Name:      "outbox_publish_failures_total",
		Help:      "Retryable outbox publish failures.",
	}, []string{"topic"})
	deadLtr := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: outboxNamespace,
		Name:      "outbox_dead_lettered_total",
		Help:      "Outbox events moved to the DLQ.",
	}, []string{"reason"})
	reg.MustRegister(published, failed, deadLtr)
	return &OutboxMetrics{published: published, failed: failed, deadLtr: deadLtr}
}

func (m *OutboxMetrics) IncPublished(topic string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *OutboxMetrics) IncFailed(topic string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *OutboxMetrics) IncDeadLettered(reason string) {
	if m == nil || m.deadLtr == nil {
		return
	}
	m.deadLtr.WithLabelValues(normalizeLabel(reason)).Inc()
}
