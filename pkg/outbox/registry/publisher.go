package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/config"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
)

// EventDescriptor is where an event type is published and which aggregate
// is allowed to emit it.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row with its envelope checked and payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry routes outbox rows to topics and decodes their payloads.
type EventRegistry struct {
	routes   map[enums.OutboxEventType]EventDescriptor
	decoders *DecoderRegistry
}

// NonRetryableError marks a row that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry routes notification requests to the notification topic
// and every other workflow event to the workflow topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.WorkflowTopic == "":
		return nil, errors.New("workflow topic is required")
	case cfg.NotificationTopic == "":
		return nil, errors.New("notification topic is required")
	}

	reg := &EventRegistry{
		routes:   make(map[enums.OutboxEventType]EventDescriptor),
		decoders: NewWorkflowDecoders(),
	}
	reg.route(cfg.WorkflowTopic, enums.AggregateShift, enums.EventShiftCreated, enums.EventShiftStatusChanged)
	reg.route(cfg.WorkflowTopic, enums.AggregateUrgencyAlert,
		enums.EventUrgencyAlertRaised, enums.EventUrgencyAlertEscalated, enums.EventUrgencyAlertResolved)
	reg.route(cfg.WorkflowTopic, enums.AggregateBulkOperation, enums.EventBulkOperationCompleted)
	reg.route(cfg.NotificationTopic, enums.AggregateNotification, enums.EventNotificationRequested)
	return reg, nil
}

func (r *EventRegistry) route(topic string, aggregate enums.OutboxAggregateType, types ...enums.OutboxEventType) {
	for _, eventType := range types {
		r.routes[eventType] = EventDescriptor{EventType: eventType, AggregateType: aggregate, Topic: topic}
	}
}

// Resolve checks the row against its route, then decodes the payload with
// the decoder for the envelope's version. All failures are non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("%s: aggregate %s, want %s", event.EventType, event.AggregateType, desc.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(fmt.Errorf("%s: missing aggregate_id", event.EventType))
	}

	envelope, _, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}
	payload, err := r.decoders.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, err
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
