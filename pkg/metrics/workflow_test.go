package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWorkflowMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)

	metrics.ObserveTransition("assigned", "manual", nil)
	metrics.ObserveTransition("assigned", "manual", nil)
	metrics.ObserveTransition("assigned", "manual", errors.New("boom"))
	metrics.IncAlertRaised("unassigned_24h", "critical")
	metrics.ObserveBulkItem("status_change", errors.New("boom"))
	metrics.ObserveMonitor(100 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "guardforce_workflow_transitions_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 successful transitions, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "guardforce_workflow_transitions_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 failed transition, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "guardforce_workflow_alerts_raised_total", "type", "unassigned_24h"); err != nil {
		t.Fatalf("fetch alerts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 alert, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "guardforce_workflow_bulk_items_total", "action", "status_change"); err != nil {
		t.Fatalf("fetch bulk items: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 bulk item, got %f", got)
	}
}

func TestWorkflowMetricsNilSafe(t *testing.T) {
	var metrics *WorkflowMetrics
	metrics.ObserveTransition("assigned", "manual", nil)
	metrics.IncAlertResolved("understaffed", "automatic")
	metrics.IncAlertEscalated("unassigned_24h")
	metrics.ObserveMonitor(time.Second)
}
