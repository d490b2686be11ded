package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

func TestWorkflowDecodersDecodeNotificationRequests(t *testing.T) {
	reg := NewWorkflowDecoders()
	shiftID := uuid.New()
	data, err := json.Marshal(payloads.NotificationRequestedEvent{ShiftID: shiftID, RecipientIDs: []string{"mgr-1"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := reg.Decode(enums.EventNotificationRequested, 0, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := out.(*payloads.NotificationRequestedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", out)
	}
	if decoded.ShiftID != shiftID || len(decoded.RecipientIDs) != 1 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestDecodeUnknownVersionIsNonRetryable(t *testing.T) {
	_, err := NewWorkflowDecoders().Decode(enums.EventShiftCreated, 7, json.RawMessage(`{}`))
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestDecodeMalformedDataIsNonRetryable(t *testing.T) {
	_, err := NewWorkflowDecoders().Decode(enums.EventShiftStatusChanged, 1, json.RawMessage(`{"shift_id": 12`))
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestRegisterOverridesDecoder(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventUrgencyAlertResolved, 2, func(json.RawMessage) (any, error) { return "v2", nil })

	out, err := reg.Decode(enums.EventUrgencyAlertResolved, 2, nil)
	if err != nil || out != "v2" {
		t.Fatalf("unexpected result %v %v", out, err)
	}
	if _, err := reg.Decode(enums.EventUrgencyAlertResolved, 1, nil); err == nil {
		t.Fatal("expected missing v1 decoder")
	}
}
