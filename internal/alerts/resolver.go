package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
)

type resolveMetrics interface {
	IncAlertResolved(alertType, path string)
}

// autoResolvable maps a reached status to the alert types it satisfies.
// certification_gap is never listed: it needs a manager to resolve it.
var autoResolvable = map[enums.ShiftStatus][]enums.AlertType{
	enums.ShiftStatusAssigned: {
		enums.AlertTypeUnassigned24h,
		enums.AlertTypeUnderstaffed,
	},
	enums.ShiftStatusConfirmed: {
		enums.AlertTypeUnassigned24h,
		enums.AlertTypeUnderstaffed,
		enums.AlertTypeUnconfirmed12h,
	},
	enums.ShiftStatusInProgress: {
		enums.AlertTypeUnassigned24h,
		enums.AlertTypeUnderstaffed,
		enums.AlertTypeUnconfirmed12h,
		enums.AlertTypeNoShowRisk,
	},
	enums.ShiftStatusCompleted: {
		enums.AlertTypeUnassigned24h,
		enums.AlertTypeUnderstaffed,
		enums.AlertTypeUnconfirmed12h,
		enums.AlertTypeNoShowRisk,
	},
	enums.ShiftStatusArchived: {
		enums.AlertTypeUnassigned24h,
		enums.AlertTypeUnderstaffed,
		enums.AlertTypeUnconfirmed12h,
		enums.AlertTypeNoShowRisk,
	},
}

// ResolvableTypes lists the alert types closed automatically when a shift
// reaches status.
func ResolvableTypes(status enums.ShiftStatus) []enums.AlertType {
	return append([]enums.AlertType(nil), autoResolvable[status]...)
}

// Resolver closes alerts that a transition made obsolete.
type Resolver struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics resolveMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewResolver builds an alert resolver.
func NewResolver(repo Repository, tx txRunner, emitter outbox.Emitter, metrics resolveMetrics, logg *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Resolver{repo: repo, tx: tx, outbox: emitter, metrics: metrics, logg: logg, now: time.Now}, nil
}

// AutoResolve resolves the open alerts on shiftID that status satisfies.
func (r *Resolver) AutoResolve(ctx context.Context, shiftID uuid.UUID, status enums.ShiftStatus, actor string) ([]models.UrgencyAlert, error) {
	types := autoResolvable[status]
	if len(types) == 0 {
		return nil, nil
	}
	wanted := make(map[enums.AlertType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	var resolved []models.UrgencyAlert
	note := fmt.Sprintf("auto-resolved when shift moved to %s", status)
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		open, err := repo.ListOpenForShift(ctx, shiftID)
		if err != nil {
			return fmt.Errorf("load open alerts: %w", err)
		}
		at := r.now().UTC()
		for _, alert := range open {
			if _, ok := wanted[alert.AlertType]; !ok {
				continue
			}
			ok, err := repo.Resolve(ctx, alert.ID, actor, &note, at)
			if err != nil {
				return fmt.Errorf("resolve %s alert: %w", alert.AlertType, err)
			}
			if !ok {
				continue
			}
			alert.Status = enums.AlertStatusResolved
			alert.ResolvedBy = &actor
			alert.ResolvedAt = &at
			alert.ResolutionNote = &note
			if err := r.outbox.Emit(ctx, tx, resolvedEvent(alert, actor)); err != nil {
				return fmt.Errorf("emit alert resolved: %w", err)
			}
			resolved = append(resolved, alert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, alert := range resolved {
		if r.metrics != nil {
			r.metrics.IncAlertResolved(string(alert.AlertType), "automatic")
		}
	}
	if r.logg != nil && len(resolved) > 0 {
		logCtx := r.logg.WithShiftID(ctx, shiftID.String())
		logCtx = r.logg.WithFields(logCtx, map[string]any{"status": status, "resolved": len(resolved)})
		r.logg.Info(logCtx, "urgency alerts auto-resolved")
	}
	return resolved, nil
}

// Hook adapts the resolver to run after every committed transition.
func (r *Resolver) Hook() workflow.Hook {
	return workflow.HookFunc(func(ctx context.Context, shift models.Shift, transition models.WorkflowTransition) ([]string, error) {
		if _, err := r.AutoResolve(ctx, shift.ID, transition.NewStatus, transition.ChangedBy); err != nil {
			return nil, fmt.Errorf("alert auto-resolution: %w", err)
		}
		return nil, nil
	})
}

func resolvedEvent(alert models.UrgencyAlert, actor string) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventUrgencyAlertResolved,
		AggregateType: enums.AggregateUrgencyAlert,
		AggregateID:   alert.ID,
		Actor:         &outbox.ActorRef{ActorID: actor},
		Data:          alertEvent(alert),
	}
}
