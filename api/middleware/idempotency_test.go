package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

// memoryStore is a ResponseStore over a plain map.
type memoryStore map[string]string

func (m memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m[key]; ok {
		return false, nil
	}
	m[key], _ = value.(string)
	return true, nil
}

func (m memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key], _ = value.(string)
	return nil
}

func (m memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m, key)
	}
	return nil
}

func (m memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

// countingHandler answers every request with status and body and counts calls.
type countingHandler struct {
	status int
	body   string
	calls  int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	if h.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(h.body))
}

func post(t *testing.T, h http.Handler, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) pkgerrors.Code {
	t.Helper()
	var payload struct {
		Error struct {
			Code pkgerrors.Code `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRouteTTL(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{http.MethodPost, "/api/v1/shifts/bulk", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/shifts/7f1c/move", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/shifts", defaultIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/shifts/s-1/assignments/a-1/confirm", defaultIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/alerts/a-1/resolve", defaultIdempotencyTTL, true},
		{http.MethodGet, "/api/v1/kanban", 0, false},
		{http.MethodPost, "/api/v1/alerts/monitor", 0, false},
		{http.MethodGet, "/api/v1/shifts/7f1c", 0, false},
		{http.MethodPost, "/api/v1/shifts//move", 0, false},
	}
	for _, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.path)
		assert.Equal(t, tc.ok, ok, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.want, ttl, "%s %s", tc.method, tc.path)
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	rec := post(t, Idempotency(memoryStore{}, nil)(next), "/api/v1/shifts", "", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, pkgerrors.CodeInvalidRequest, errorCode(t, rec))
	assert.Zero(t, next.calls)
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	next := &countingHandler{status: http.StatusAccepted, body: `{"ok":true}`}
	h := Idempotency(memoryStore{}, nil)(next)

	first := post(t, h, "/api/v1/shifts", "abc", `{"title":"night"}`)
	require.Equal(t, http.StatusAccepted, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	replay := post(t, h, "/api/v1/shifts", "abc", `{"title":"night"}`)
	assert.Equal(t, http.StatusAccepted, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"ok":true}`, replay.Body.String())
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	h := Idempotency(memoryStore{}, nil)(next)

	post(t, h, "/api/v1/shifts", "xyz", `{"title":"day"}`)
	rec := post(t, h, "/api/v1/shifts", "xyz", `{"title":"night"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pkgerrors.CodeIdempotency, errorCode(t, rec))
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := memoryStore{}
	next := &countingHandler{status: http.StatusServiceUnavailable}
	h := Idempotency(store, nil)(next)

	post(t, h, "/api/v1/shifts/bulk", "retry-me", `{"action":"priority_update"}`)
	post(t, h, "/api/v1/shifts/bulk", "retry-me", `{"action":"priority_update"}`)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store)
}

func TestIdempotencyScopesKeysPerActor(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	h := Idempotency(memoryStore{}, nil)(next)

	for _, actor := range []string{"manager-1", "manager-2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shifts", strings.NewReader(`{}`))
		req = req.WithContext(WithActor(req.Context(), actor))
		req.Header.Set(idempotencyHeader, "same")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, next.calls)
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := memoryStore{}
	body := `{"target_status":"confirmed"}`
	key := store.IdempotencyKey(ActorFromContext(context.Background())+"|POST|/api/v1/shifts/s-1/move", "dup")
	marker, err := storedResponse{RequestHash: hashBody([]byte(body))}.encode()
	require.NoError(t, err)
	store[key] = marker

	next := &countingHandler{status: http.StatusOK}
	rec := post(t, Idempotency(store, nil)(next), "/api/v1/shifts/s-1/move", "dup", body)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pkgerrors.CodeConflict, errorCode(t, rec))
	assert.Equal(t, marker, store[key], "reservation is left untouched")
	assert.Zero(t, next.calls)
}

func TestIdempotencyPassesThroughUnlistedRoutes(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	h := Idempotency(memoryStore{}, nil)(next)

	post(t, h, "/api/v1/alerts/monitor", "", `{}`)
	post(t, h, "/api/v1/alerts/monitor", "", `{}`)
	assert.Equal(t, 2, next.calls)
}
