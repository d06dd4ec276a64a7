package migration

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

func TestPrometheusMetricsRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.ObserveTransition(StepDetect, StepReview)
	m.ObserveRecords(domain.TypeSupplier, 3, 1)
	m.ObserveRecords(domain.TypeProductType, 0, 0) // zero counts publish nothing
	m.ObserveMigration(true, 2*time.Second)
	m.ObserveMigration(false, time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]bool, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	for _, name := range []string{
		"autocontrol_migration_step_transitions_total",
		"autocontrol_migration_records_total",
		"autocontrol_migration_attempts_total",
		"autocontrol_migration_attempt_duration_seconds",
	} {
		if !byName[name] {
			t.Fatalf("metric %s not collected", name)
		}
	}
}

func TestNoopMetricsSatisfiesInterface(t *testing.T) {
	var _ MetricsRecorder = NoopMetrics{}
	var _ MetricsRecorder = (*PrometheusMetrics)(nil)
}
