package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// reservationTTL bounds how long an in-flight request holds its key.
	reservationTTL = 2 * time.Minute
)

// ResponseStore persists replayable responses keyed by client supplied
// idempotency keys.
type ResponseStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// idempotentRoute is a POST route template whose segments in braces match
// any single path segment.
type idempotentRoute struct {
	segments []string
	ttl      time.Duration
}

func route(template string, ttl time.Duration) idempotentRoute {
	return idempotentRoute{segments: splitPath(template), ttl: ttl}
}

var idempotentRoutes = []idempotentRoute{
	route("/api/v1/shifts", defaultIdempotencyTTL),
	route("/api/v1/shifts/{shiftID}/assignments", defaultIdempotencyTTL),
	route("/api/v1/shifts/{shiftID}/assignments/{assignmentID}/confirm", defaultIdempotencyTTL),
	route("/api/v1/shifts/{shiftID}/assignments/{assignmentID}/cancel", defaultIdempotencyTTL),
	route("/api/v1/alerts/{alertID}/acknowledge", defaultIdempotencyTTL),
	route("/api/v1/alerts/{alertID}/resolve", defaultIdempotencyTTL),
	route("/api/v1/shifts/bulk", criticalIdempotencyTTL),
	route("/api/v1/shifts/{shiftID}/move", criticalIdempotencyTTL),
}

func (r idempotentRoute) matches(segments []string) bool {
	if len(segments) != len(r.segments) {
		return false
	}
	for i, want := range r.segments {
		if strings.HasPrefix(want, "{") && strings.HasSuffix(want, "}") {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if segments[i] != want {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// routeTTL resolves the replay window for a POST to path.
func routeTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost || path == "" {
		return 0, false
	}
	segments := splitPath(path)
	for _, r := range idempotentRoutes {
		if r.matches(segments) {
			return r.ttl, true
		}
	}
	return 0, false
}

// storedResponse is either a reservation (Status zero) or a completed
// response ready for replay.
type storedResponse struct {
	Status      int               `json:"status"`
	Body        string            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

func (s storedResponse) encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s storedResponse) replay(w http.ResponseWriter) {
	for name, value := range s.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(s.Status)
	if body, err := base64.StdEncoding.DecodeString(s.Body); err == nil {
		_, _ = w.Write(body)
	}
}

// Idempotency makes mutating workflow routes safe to retry. The first request
// for an (actor, path, key) triple reserves the key, later ones replay the
// stored response or are rejected while the original is still running.
func Idempotency(store ResponseStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInvalidRequest, idempotencyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(scopeFor(r), clientKey)

			reserved, err := reserve(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !reserved {
				existing, err := lookup(ctx, store, key)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				switch {
				case existing.RequestHash != hash:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case existing.pending():
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
				default:
					existing.replay(w)
				}
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				// Release the key so the client can retry.
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "release idempotency key", err)
				}
				return
			}

			final := storedResponse{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: hash,
			}
			if ct := capture.Header().Get("Content-Type"); ct != "" {
				final.Headers = map[string]string{"Content-Type": ct}
			}
			payload, err := final.encode()
			if err != nil {
				logError(ctx, logg, "encode idempotency record", err)
				return
			}
			if err := store.Set(ctx, key, payload, ttl); err != nil {
				logError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

func reserve(ctx context.Context, store ResponseStore, key, hash string) (bool, error) {
	marker, err := storedResponse{RequestHash: hash}.encode()
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency reservation")
	}
	ok, err := store.SetNX(ctx, key, marker, reservationTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	return ok, nil
}

func lookup(ctx context.Context, store ResponseStore, key string) (storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Reservation expired between SetNX and Get.
			return storedResponse{}, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key expired, retry the request")
		}
		return storedResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return storedResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return stored, nil
}

func scopeFor(r *http.Request) string {
	return strings.Join([]string{ActorFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
