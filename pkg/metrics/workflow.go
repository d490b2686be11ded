package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics tracks shift transitions, alerts and bulk runs.
type WorkflowMetrics struct {
	transitions     *prometheus.CounterVec
	alertsRaised    *prometheus.CounterVec
	alertsResolved  *prometheus.CounterVec
	alertsEscalated *prometheus.CounterVec
	bulkItems       *prometheus.CounterVec
	monitorDuration prometheus.Histogram
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Shift status transitions by destination, method and outcome.",
		}, []string{"to", "method", "outcome"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "alerts_raised_total",
			Help:      "Urgency alerts raised by type and priority.",
		}, []string{"type", "priority"}),
		alertsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "alerts_resolved_total",
			Help:      "Urgency alerts resolved by type and resolution path.",
		}, []string{"type", "path"}),
		alertsEscalated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "alerts_escalated_total",
			Help:      "Urgency alert escalations by type.",
		}, []string{"type"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "bulk_items_total",
			Help:      "Bulk operation items by action and outcome.",
		}, []string{"action", "outcome"}),
		monitorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "monitor_duration_seconds",
			Help:      "Duration of urgency monitor scans in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.transitions, m.alertsRaised, m.alertsResolved, m.alertsEscalated, m.bulkItems, m.monitorDuration)
	return m
}

func (m *WorkflowMetrics) ObserveTransition(to, method string, err error) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to), normalizeLabel(method), outcome(err)).Inc()
}

func (m *WorkflowMetrics) IncAlertRaised(alertType, priority string) {
	if m == nil || m.alertsRaised == nil {
		return
	}
	m.alertsRaised.WithLabelValues(normalizeLabel(alertType), normalizeLabel(priority)).Inc()
}

func (m *WorkflowMetrics) IncAlertResolved(alertType, path string) {
	if m == nil || m.alertsResolved == nil {
		return
	}
	m.alertsResolved.WithLabelValues(normalizeLabel(alertType), normalizeLabel(path)).Inc()
}

func (m *WorkflowMetrics) IncAlertEscalated(alertType string) {
	if m == nil || m.alertsEscalated == nil {
		return
	}
	m.alertsEscalated.WithLabelValues(normalizeLabel(alertType)).Inc()
}

func (m *WorkflowMetrics) ObserveBulkItem(action string, err error) {
	if m == nil || m.bulkItems == nil {
		return
	}
	m.bulkItems.WithLabelValues(normalizeLabel(action), outcome(err)).Inc()
}

func (m *WorkflowMetrics) ObserveMonitor(duration time.Duration) {
	if m == nil || m.monitorDuration == nil {
		return
	}
	m.monitorDuration.Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
