package alerts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier delivers alert notifications. Failures never undo the alert.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert models.UrgencyAlert, shift models.Shift) error
}

type monitorMetrics interface {
	IncAlertRaised(alertType, priority string)
	IncAlertEscalated(alertType string)
	ObserveMonitor(duration time.Duration)
}

// MonitorResult lists what one scan raised and escalated.
type MonitorResult struct {
	Scanned   int        `json:"scanned"`
	Alerts    []AlertDTO `json:"alerts"`
	Escalated []AlertDTO `json:"escalated"`
	Warnings  []string   `json:"warnings"`
}

// MonitorParams wires a Monitor.
type MonitorParams struct {
	Repo            Repository
	Tx              txRunner
	Outbox          outbox.Emitter
	Notifier        Notifier
	Risk            RiskScorer
	Metrics         monitorMetrics
	Logger          *logger.Logger
	Lookahead       time.Duration
	NoShowThreshold float64
	Now             func() time.Time
}

// Monitor scans upcoming shifts and raises urgency alerts.
type Monitor struct {
	repo      Repository
	tx        txRunner
	outbox    outbox.Emitter
	notifier  Notifier
	risk      RiskScorer
	metrics   monitorMetrics
	logg      *logger.Logger
	lookahead time.Duration
	rules     RuleConfig
	now       func() time.Time
}

var monitoredStatuses = []enums.ShiftStatus{
	enums.ShiftStatusUnassigned,
	enums.ShiftStatusAssigned,
	enums.ShiftStatusConfirmed,
}

// NewMonitor builds an urgency monitor.
func NewMonitor(params MonitorParams) (*Monitor, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	lookahead := params.Lookahead
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	threshold := params.NoShowThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	risk := params.Risk
	if risk == nil {
		risk = NewHistoryRiskScorer(params.Repo, 0)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		notifier:  params.Notifier,
		risk:      risk,
		metrics:   params.Metrics,
		logg:      params.Logger,
		lookahead: lookahead,
		rules:     RuleConfig{NoShowThreshold: threshold},
		now:       now,
	}, nil
}

// MonitorShiftsForAlerts scans shifts starting within the lookahead window,
// oldest start first, and opens or escalates alerts for them. Only the scan
// query failing aborts the run; everything else is reported as a warning.
func (m *Monitor) MonitorShiftsForAlerts(ctx context.Context) (*MonitorResult, error) {
	started := m.now()
	defer func() {
		if m.metrics != nil {
			m.metrics.ObserveMonitor(time.Since(started))
		}
	}()

	now := started.UTC()
	shifts, err := m.repo.ListUpcomingShifts(ctx, now, now.Add(m.lookahead), monitoredStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMonitoring, err, "list upcoming shifts")
	}

	result := &MonitorResult{Alerts: []AlertDTO{}, Escalated: []AlertDTO{}, Warnings: []string{}}
	for _, shift := range shifts {
		hours := shift.StartTime.Sub(now).Hours()
		if hours < 0 {
			continue
		}
		result.Scanned++
		m.scanShift(ctx, shift, roundHours(hours), result)
	}

	if m.logg != nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"scanned":   result.Scanned,
			"raised":    len(result.Alerts),
			"escalated": len(result.Escalated),
			"warnings":  len(result.Warnings),
		})
		m.logg.Info(logCtx, "urgency monitor scan complete")
	}
	return result, nil
}

func (m *Monitor) scanShift(ctx context.Context, shift models.Shift, hours float64, result *MonitorResult) {
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf("shift %s: ", shift.ID) + fmt.Sprintf(format, args...)
		result.Warnings = append(result.Warnings, msg)
		if m.logg != nil {
			m.logg.Warn(m.logg.WithShiftID(ctx, shift.ID.String()), msg)
		}
	}

	open, err := m.repo.ListOpenForShift(ctx, shift.ID)
	if err != nil {
		warn("%s: load open alerts: %v", pkgerrors.CodeMonitoring, err)
		return
	}
	snapshot, err := m.snapshot(ctx, shift, hours)
	if err != nil {
		warn("%s: %v", pkgerrors.CodeMonitoring, err)
		return
	}

	existing := make(map[enums.AlertType]models.UrgencyAlert, len(open))
	for _, a := range open {
		existing[a.AlertType] = a
	}

	for _, candidate := range Evaluate(snapshot, m.rules) {
		if current, ok := existing[candidate.Type]; ok {
			crossed := candidate.Level - EscalationLevel(current.AlertType, current.HoursUntilShift)
			if crossed <= 0 {
				continue
			}
			candidate.Level = current.EscalationLevel + crossed
			escalated, err := m.escalate(ctx, current, candidate, hours)
			if err != nil {
				warn("escalate %s alert: %v", candidate.Type, err)
				continue
			}
			result.Escalated = append(result.Escalated, FromModel(*escalated))
			m.dispatch(ctx, *escalated, shift, warn)
			continue
		}

		created, err := m.raise(ctx, shift, candidate, hours)
		if err != nil {
			warn("%s: %s: %v", pkgerrors.CodeAlertCreation, candidate.Type, err)
			continue
		}
		if created == nil {
			// Another scan opened the same alert first.
			continue
		}
		result.Alerts = append(result.Alerts, FromModel(*created))
		m.dispatch(ctx, *created, shift, warn)
	}
}

func (m *Monitor) snapshot(ctx context.Context, shift models.Shift, hours float64) (Snapshot, error) {
	snap := Snapshot{Shift: shift, HoursUntilShift: hours}

	assignments, err := m.repo.ListAssignments(ctx, shift.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load assignments: %w", err)
	}
	for _, a := range assignments {
		if a.Status.Active() {
			snap.ActiveAssignments++
		}
		if a.Status == enums.AssignmentStatusConfirmed {
			snap.HasConfirmed = true
		}
	}

	if shift.AssignedGuardID == nil {
		return snap, nil
	}
	guard, err := m.repo.FindGuard(ctx, *shift.AssignedGuardID)
	switch {
	case err == nil:
		snap.Guard = guard
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Snapshot{}, fmt.Errorf("load guard: %w", err)
	}

	if NeedsRiskScore(shift, hours) {
		score, err := m.risk.Score(ctx, *shift.AssignedGuardID, snap.HasConfirmed)
		if err != nil {
			return Snapshot{}, fmt.Errorf("score no-show risk: %w", err)
		}
		snap.RiskScore = &score
	}
	return snap, nil
}

func (m *Monitor) raise(ctx context.Context, shift models.Shift, c Candidate, hours float64) (*models.UrgencyAlert, error) {
	alert := &models.UrgencyAlert{
		ID:              uuid.New(),
		ShiftID:         shift.ID,
		AlertType:       c.Type,
		Priority:        c.Priority,
		Status:          enums.AlertStatusActive,
		Message:         c.Message,
		HoursUntilShift: hours,
		EscalationLevel: 1,
	}
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := m.repo.WithTx(tx).Create(ctx, alert)
		if err != nil {
			return err
		}
		if !ok {
			return errAlertAlreadyOpen
		}
		return m.emit(ctx, tx, enums.EventUrgencyAlertRaised, *alert)
	})
	if errors.Is(err, errAlertAlreadyOpen) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.IncAlertRaised(string(alert.AlertType), string(alert.Priority))
	}
	return alert, nil
}

func (m *Monitor) escalate(ctx context.Context, current models.UrgencyAlert, c Candidate, hours float64) (*models.UrgencyAlert, error) {
	at := m.now().UTC()
	next := current
	next.EscalationLevel = c.Level
	next.Priority = higherPriority(current.Priority, c.Priority)
	next.HoursUntilShift = hours
	next.Message = c.Message
	next.EscalatedAt = &at

	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := m.repo.WithTx(tx).Escalate(ctx, &next, at); err != nil {
			return err
		}
		return m.emit(ctx, tx, enums.EventUrgencyAlertEscalated, next)
	})
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.IncAlertEscalated(string(next.AlertType))
	}
	return &next, nil
}

func (m *Monitor) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, alert models.UrgencyAlert) error {
	return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateUrgencyAlert,
		AggregateID:   alert.ID,
		Actor:         &outbox.ActorRef{ActorID: systemActor, Method: string(enums.TransitionMethodAutomatic)},
		Data:          alertEvent(alert),
	})
}

func (m *Monitor) dispatch(ctx context.Context, alert models.UrgencyAlert, shift models.Shift, warn func(string, ...any)) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyAlert(ctx, alert, shift); err != nil {
		warn("notify %s alert: %v", alert.AlertType, err)
		return
	}
	if err := m.repo.MarkNotified(ctx, alert.ID, m.now().UTC()); err != nil {
		warn("record notification for %s alert: %v", alert.AlertType, err)
	}
}

const systemActor = "system:urgency-monitor"

var errAlertAlreadyOpen = errors.New("alert already open")

func alertEvent(alert models.UrgencyAlert) payloads.UrgencyAlertEvent {
	return payloads.UrgencyAlertEvent{
		AlertID:         alert.ID,
		ShiftID:         alert.ShiftID,
		AlertType:       alert.AlertType,
		Priority:        alert.Priority,
		Status:          alert.Status,
		EscalationLevel: alert.EscalationLevel,
		HoursUntilShift: alert.HoursUntilShift,
		ResolvedBy:      alert.ResolvedBy,
	}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
