package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "gf:idempotency:" + scope + ":" + id
}

func TestClaimLifecycle(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()
	key := "gf:idempotency:evt:notification-inbox:" + eventID.String()

	status, err := manager.Claim(ctx, "notification-inbox", eventID)
	if err != nil || status != StatusClaimed {
		t.Fatalf("first claim: status=%v err=%v", status, err)
	}
	if store.ttls[key] != DefaultClaimTTL {
		t.Fatalf("claim ttl = %v", store.ttls[key])
	}

	if status, _ := manager.Claim(ctx, "notification-inbox", eventID); status != StatusInFlight {
		t.Fatalf("expected in-flight while claimed, got %v", status)
	}

	if err := manager.Complete(ctx, "notification-inbox", eventID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if store.ttls[key] != 24*time.Hour {
		t.Fatalf("done marker ttl = %v", store.ttls[key])
	}
	if status, _ := manager.Claim(ctx, "notification-inbox", eventID); status != StatusDone {
		t.Fatalf("expected done after completion, got %v", status)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newMemoryStore()
	manager, _ := NewManager(store, time.Hour)
	ctx := context.Background()
	eventID := uuid.New()

	if _, err := manager.Claim(ctx, "c", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := manager.Release(ctx, "c", eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if status, _ := manager.Claim(ctx, "c", eventID); status != StatusClaimed {
		t.Fatalf("expected reclaim after release, got %v", status)
	}
}

func TestClaimTTLNeverExceedsRetention(t *testing.T) {
	store := newMemoryStore()
	manager, _ := NewManager(store, time.Minute)
	eventID := uuid.New()
	if _, err := manager.Claim(context.Background(), "c", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if got := store.ttls["gf:idempotency:evt:c:"+eventID.String()]; got != time.Minute {
		t.Fatalf("expected claim ttl capped at retention, got %v", got)
	}
}

func TestClaimPropagatesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("boom")
	manager, _ := NewManager(store, time.Hour)
	if _, err := manager.Claim(context.Background(), "c", uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestKeyValidation(t *testing.T) {
	manager, _ := NewManager(newMemoryStore(), time.Hour)
	if _, err := manager.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected consumer required error")
	}
	if err := manager.Complete(context.Background(), "c", uuid.Nil); err == nil {
		t.Fatal("expected event id required error")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected nil store error")
	}
}
