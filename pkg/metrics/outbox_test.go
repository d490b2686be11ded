package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncOutcome("shift_status_changed", OutboxOutcomePublished)
	m.IncOutcome("shift_status_changed", OutboxOutcomePublished)
	m.IncOutcome("notification_requested", OutboxOutcomeDeadLetter)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "guardforce_outbox_publish_total", "outcome", OutboxOutcomePublished); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "guardforce_outbox_publish_total", "event_type", "notification_requested"); err != nil {
		t.Fatalf("fetch dead letter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dead letter=1, got %f", got)
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.IncOutcome("shift_created", OutboxOutcomeRetry)
	NewOutboxMetrics(nil).IncOutcome("", "")
}
