package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/registry"
)

const inboxConsumer = "notification-inbox"

type inboxWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type processedTracker interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.Status, error)
	Complete(ctx context.Context, consumer string, eventID uuid.UUID) error
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error)
}

// Consumer turns notification_requested events into inbox rows, one per recipient.
type Consumer struct {
	repo         inboxWriter
	subscription *pubsub.Subscriber
	idempotency  processedTracker
	decoders     payloadDecoder
	logg         *logger.Logger
}

// NewConsumer builds the inbox consumer.
func NewConsumer(repo inboxWriter, subscription *pubsub.Subscriber, tracker processedTracker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  tracker,
		decoders:     registry.NewWorkflowDecoders(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack     bool
	nack    bool
	created int
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	envelope, eventID, err := outbox.ParseEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	// Undecodable payloads can never succeed, so they are dropped before the
	// event is marked processed.
	decoded, err := c.decoders.Decode(enums.EventNotificationRequested, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(c.logg.WithField(logCtx, "version", envelope.Version), "failed to parse payload", err)
		return processResult{ack: true}
	}
	payload, ok := decoded.(*payloads.NotificationRequestedEvent)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", fmt.Errorf("got %T", decoded))
		return processResult{ack: true}
	}

	status, err := c.idempotency.Claim(ctx, inboxConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	switch status {
	case idempotency.StatusDone:
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	case idempotency.StatusInFlight:
		c.logg.Info(logCtx, "event is being handled by another delivery")
		return processResult{nack: true}
	}

	logCtx = c.logg.WithShiftID(logCtx, payload.ShiftID.String())
	created, err := c.createInboxEntries(ctx, *payload)
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if relErr := c.idempotency.Release(ctx, inboxConsumer, eventID); relErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency claim", relErr)
		}
		return processResult{nack: true}
	}
	if err := c.idempotency.Complete(ctx, inboxConsumer, eventID); err != nil {
		// Rows are written; a redelivery after claim expiry may duplicate them.
		c.logg.Error(logCtx, "failed to mark event processed", err)
	}
	c.logg.Info(c.logg.WithField(logCtx, "recipients", created), "inbox notifications created")
	return processResult{ack: true, created: created}
}

func (c *Consumer) createInboxEntries(ctx context.Context, payload payloads.NotificationRequestedEvent) (int, error) {
	kind, err := enums.ParseNotificationType(payload.Type)
	if err != nil {
		kind = enums.NotificationTypeShiftUpdate
	}
	shiftID := payload.ShiftID
	link := fmt.Sprintf("/shifts/%s", shiftID)
	if payload.AlertID != nil {
		link = fmt.Sprintf("/alerts/%s", *payload.AlertID)
	}

	created := 0
	for _, recipient := range payload.RecipientIDs {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" {
			continue
		}
		notification := &models.Notification{
			RecipientID: recipient,
			Type:        kind,
			Title:       payload.Title,
			Message:     strings.TrimSpace(payload.Message),
			ShiftID:     &shiftID,
			AlertID:     payload.AlertID,
			Link:        stringPtr(link),
		}
		if err := c.repo.Create(ctx, notification); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func stringPtr(value string) *string {
	return &value
}
