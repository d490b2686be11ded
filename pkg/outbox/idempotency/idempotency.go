package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	markerClaimed = "claimed"
	markerDone    = "done"

	// DefaultClaimTTL bounds how long a crashed handler blocks redelivery.
	DefaultClaimTTL = 5 * time.Minute
)

// Status is the outcome of claiming an event for a consumer.
type Status int

const (
	// StatusClaimed means the caller owns the event and must Complete or Release it.
	StatusClaimed Status = iota
	// StatusInFlight means another delivery holds the claim.
	StatusInFlight
	// StatusDone means the event was already handled.
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusClaimed:
		return "claimed"
	case StatusInFlight:
		return "in_flight"
	case StatusDone:
		return "done"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Store is the Redis surface the Manager needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Manager deduplicates at-least-once deliveries per consumer. Keys follow
// gf:idempotency:evt:<consumer>:<event_id>.
type Manager struct {
	store    Store
	ttl      time.Duration
	claimTTL time.Duration
}

// NewManager keeps completed markers for ttl. A zero ttl keeps them forever.
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	claimTTL := DefaultClaimTTL
	if ttl > 0 && ttl < claimTTL {
		claimTTL = ttl
	}
	return &Manager{store: store, ttl: ttl, claimTTL: claimTTL}, nil
}

// Claim takes ownership of eventID for consumer unless it is already running
// or finished elsewhere.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (Status, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return StatusClaimed, err
	}
	ok, err := m.store.SetNX(ctx, key, markerClaimed, m.claimTTL)
	if err != nil {
		return StatusClaimed, fmt.Errorf("claim %s: %w", key, err)
	}
	if ok {
		return StatusClaimed, nil
	}

	marker, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, goredis.Nil):
		// Claim expired in between; let the redelivery try again.
		return StatusInFlight, nil
	case err != nil:
		return StatusClaimed, fmt.Errorf("read %s: %w", key, err)
	case marker == markerDone:
		return StatusDone, nil
	default:
		return StatusInFlight, nil
	}
}

// Complete records eventID as handled for the retention ttl.
func (m *Manager) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, markerDone, m.ttl)
}

// Release drops a claim so the next delivery can retry.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
