package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Request describes an ad-hoc notification about one shift.
type Request struct {
	Type       enums.NotificationType
	Title      string
	Message    string
	Recipients []string
	Channels   []string
	Priority   enums.AlertPriority
}

var defaultChannels = []string{"dashboard"}

// Dispatcher queues notification_requested events. Delivery happens
// downstream of the outbox; this only decides who hears about what.
type Dispatcher struct {
	tx     txRunner
	outbox outbox.Emitter
}

// NewDispatcher builds a notification dispatcher.
func NewDispatcher(tx txRunner, emitter outbox.Emitter) (*Dispatcher, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Dispatcher{tx: tx, outbox: emitter}, nil
}

// NotifyAlert tells the shift's manager and assigned guard about an alert.
func (d *Dispatcher) NotifyAlert(ctx context.Context, alert models.UrgencyAlert, shift models.Shift) error {
	channels := defaultChannels
	if alert.Priority == enums.AlertPriorityCritical || alert.Priority == enums.AlertPriorityHigh {
		channels = []string{"dashboard", "sms", "email"}
	}
	alertID := alert.ID
	return d.emit(ctx, shift.ID, "system:urgency-monitor", payloads.NotificationRequestedEvent{
		Type:         string(enums.NotificationTypeUrgencyAlert),
		ShiftID:      shift.ID,
		AlertID:      &alertID,
		GuardID:      shift.AssignedGuardID,
		RecipientIDs: shiftRecipients(shift, nil),
		Channels:     channels,
		Priority:     alert.Priority,
		Title:        fmt.Sprintf("Urgent: %s", strings.ReplaceAll(string(alert.AlertType), "_", " ")),
		Message:      alert.Message,
	})
}

// NotifyShift sends an ad-hoc notification about shift on behalf of actor.
func (d *Dispatcher) NotifyShift(ctx context.Context, shift models.Shift, req Request, actor string) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("notification message required")
	}
	kind := req.Type
	if kind == "" {
		kind = enums.NotificationTypeShiftUpdate
	}
	if !kind.IsValid() {
		return fmt.Errorf("invalid notification type %q", kind)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = shift.Title
	}
	channels := req.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}
	return d.emit(ctx, shift.ID, actor, payloads.NotificationRequestedEvent{
		Type:         string(kind),
		ShiftID:      shift.ID,
		GuardID:      shift.AssignedGuardID,
		RecipientIDs: shiftRecipients(shift, req.Recipients),
		Channels:     channels,
		Priority:     req.Priority,
		Title:        title,
		Message:      strings.TrimSpace(req.Message),
	})
}

func (d *Dispatcher) emit(ctx context.Context, shiftID uuid.UUID, actor string, payload payloads.NotificationRequestedEvent) error {
	if len(payload.RecipientIDs) == 0 {
		return fmt.Errorf("shift %s has no notification recipients", shiftID)
	}
	return d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return d.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   uuid.New(),
			Actor:         &outbox.ActorRef{ActorID: actor},
			Data:          payload,
		})
	})
}

// shiftRecipients returns explicit recipients when given, else the manager
// and the assigned guard.
func shiftRecipients(shift models.Shift, explicit []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(explicit) > 0 {
		for _, id := range explicit {
			add(id)
		}
		return out
	}
	if shift.ManagerID != nil {
		add(*shift.ManagerID)
	}
	if shift.AssignedGuardID != nil {
		add(GuardRecipient(*shift.AssignedGuardID))
	}
	return out
}

// GuardRecipient is the inbox key for a guard.
func GuardRecipient(guardID uuid.UUID) string {
	return "guard:" + guardID.String()
}
