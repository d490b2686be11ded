package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event and through which surface.
type ActorRef struct {
	ActorID string `json:"actorId"`
	Method  string `json:"method,omitempty"`
}

// PayloadEnvelope wraps every payload stored in outbox_events and published
// to Pub/Sub. Consumers switch on Version before decoding Data.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var (
	ErrEnvelopeEventID = errors.New("envelope event id is invalid")
	ErrEnvelopeData    = errors.New("envelope data is empty")
)

// ParseEnvelope decodes raw and checks the fields every consumer relies on.
func ParseEnvelope(raw []byte) (PayloadEnvelope, uuid.UUID, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, uuid.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	id, err := uuid.Parse(env.EventID)
	if err != nil || id == uuid.Nil {
		return env, uuid.Nil, ErrEnvelopeEventID
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, id, ErrEnvelopeData
	}
	return env, id, nil
}
