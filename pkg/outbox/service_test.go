package outbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

type recordingInserter struct {
	rows []models.OutboxEvent
}

func (r *recordingInserter) Insert(_ *gorm.DB, event models.OutboxEvent) error {
	r.rows = append(r.rows, event)
	return nil
}

func TestEmitWrapsDataInEnvelope(t *testing.T) {
	repo := &recordingInserter{}
	svc := NewService(repo, nil)
	fixedID := uuid.MustParse("5b0f8f4c-4b0e-4f0c-9d43-6f6d2f3f1a11")
	svc.newID = func() uuid.UUID { return fixedID }
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("x", 3600)) }

	shiftID := uuid.New()
	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventShiftCreated,
		AggregateType: enums.AggregateShift,
		AggregateID:   shiftID,
		Actor:         &ActorRef{ActorID: "manager-1"},
		Data:          map[string]string{"shift_id": shiftID.String()},
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)

	row := repo.rows[0]
	assert.Equal(t, fixedID, row.ID)
	assert.Equal(t, shiftID, row.AggregateID)

	env, id, err := ParseEnvelope(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, fixedID, id)
	assert.Equal(t, currentEnvelopeVersion, env.Version)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	assert.Equal(t, "manager-1", env.Actor.ActorID)
	assert.JSONEq(t, `{"shift_id":"`+shiftID.String()+`"}`, string(env.Data))
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	svc := NewService(&recordingInserter{}, nil)
	ctx := context.Background()
	valid := DomainEvent{
		EventType:     enums.EventShiftCreated,
		AggregateType: enums.AggregateShift,
		AggregateID:   uuid.New(),
		Data:          struct{}{},
	}

	assert.Error(t, svc.Emit(ctx, nil, valid), "transaction is required")

	noAggregate := valid
	noAggregate.AggregateID = uuid.Nil
	assert.Error(t, svc.Emit(ctx, &gorm.DB{}, noAggregate))

	badType := valid
	badType.EventType = "order_paid"
	assert.Error(t, svc.Emit(ctx, &gorm.DB{}, badType))

	noData := valid
	noData.Data = nil
	assert.Error(t, svc.Emit(ctx, &gorm.DB{}, noData))
}

func TestParseEnvelopeValidation(t *testing.T) {
	_, _, err := ParseEnvelope([]byte(`{"eventId":"nope","data":{}}`))
	assert.ErrorIs(t, err, ErrEnvelopeEventID)

	_, _, err = ParseEnvelope([]byte(`{"eventId":"` + uuid.NewString() + `","data":null}`))
	assert.ErrorIs(t, err, ErrEnvelopeData)

	_, _, err = ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestTruncateUTF8KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 1023) + "é"
	got := truncateUTF8(s, maxDLQErrorLen)
	assert.Equal(t, strings.Repeat("a", 1023), got)
	assert.Equal(t, "short", truncateUTF8("short", maxDLQErrorLen))
}
