package migration

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// MetricsRecorder receives pipeline observations. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	// ObserveTransition records a step transition.
	ObserveTransition(from, to Step)
	// ObserveRecords records per-type transfer outcomes.
	ObserveRecords(t domain.RecordType, migrated, failed int)
	// ObserveMigration records the overall outcome and duration of an attempt.
	ObserveMigration(success bool, duration time.Duration)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

// ObserveTransition implements MetricsRecorder.
func (NoopMetrics) ObserveTransition(Step, Step) {}

// ObserveRecords implements MetricsRecorder.
func (NoopMetrics) ObserveRecords(domain.RecordType, int, int) {}

// ObserveMigration implements MetricsRecorder.
func (NoopMetrics) ObserveMigration(bool, time.Duration) {}

// PrometheusMetrics publishes pipeline counters and timings to a Prometheus
// registry.
type PrometheusMetrics struct {
	transitions *prometheus.CounterVec
	records     *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewPrometheusMetrics constructs and registers the pipeline collectors.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autocontrol",
			Subsystem: "migration",
			Name:      "step_transitions_total",
			Help:      "Wizard step transitions by source and target step.",
		}, []string{"from", "to"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autocontrol",
			Subsystem: "migration",
			Name:      "records_total",
			Help:      "Records processed by type and outcome.",
		}, []string{"type", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autocontrol",
			Subsystem: "migration",
			Name:      "attempts_total",
			Help:      "Migration attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autocontrol",
			Subsystem: "migration",
			Name:      "attempt_duration_seconds",
			Help:      "Wall time of a migration attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(m.transitions, m.records, m.attempts, m.duration)
	return m
}

// ObserveTransition implements MetricsRecorder.
func (m *PrometheusMetrics) ObserveTransition(from, to Step) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveRecords implements MetricsRecorder.
func (m *PrometheusMetrics) ObserveRecords(t domain.RecordType, migrated, failed int) {
	if migrated > 0 {
		m.records.WithLabelValues(t.String(), "migrated").Add(float64(migrated))
	}
	if failed > 0 {
		m.records.WithLabelValues(t.String(), "failed").Add(float64(failed))
	}
}

// ObserveMigration implements MetricsRecorder.
func (m *PrometheusMetrics) ObserveMigration(success bool, duration time.Duration) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}
