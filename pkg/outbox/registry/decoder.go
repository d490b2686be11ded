package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

// Decoder turns an envelope's data field into its typed payload.
type Decoder func(data json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry resolves payload decoders by event type and envelope version.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	decoders map[decoderKey]Decoder
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderKey]Decoder)}
}

// NewWorkflowDecoders registers the v1 decoder of every workflow event.
func NewWorkflowDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventShiftCreated, 1, decodeAs[payloads.ShiftCreatedEvent])
	reg.Register(enums.EventShiftStatusChanged, 1, decodeAs[payloads.ShiftStatusChangedEvent])
	reg.Register(enums.EventUrgencyAlertRaised, 1, decodeAs[payloads.UrgencyAlertEvent])
	reg.Register(enums.EventUrgencyAlertEscalated, 1, decodeAs[payloads.UrgencyAlertEvent])
	reg.Register(enums.EventUrgencyAlertResolved, 1, decodeAs[payloads.UrgencyAlertEvent])
	reg.Register(enums.EventBulkOperationCompleted, 1, decodeAs[payloads.BulkOperationCompletedEvent])
	reg.Register(enums.EventNotificationRequested, 1, decodeAs[payloads.NotificationRequestedEvent])
	return reg
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	if decoder == nil {
		return
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.decoders[decoderKey{eventType: eventType, version: normalizeVersion(version)}] = decoder
}

// Decode runs the decoder registered for the event type and version. A
// missing decoder or malformed data is a NonRetryableError.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	r.mtx.RLock()
	decoder, ok := r.decoders[decoderKey{eventType: eventType, version: normalizeVersion(version)}]
	r.mtx.RUnlock()
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("no decoder for %s@v%d", eventType, normalizeVersion(version)))
	}
	return decoder(data)
}

// Envelopes written before versioning carry version 0.
func normalizeVersion(version int) int {
	if version <= 0 {
		return 1
	}
	return version
}

func decodeAs[T any](data json.RawMessage) (any, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %T: %w", payload, err))
	}
	return &payload, nil
}
