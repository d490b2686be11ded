package middleware

import "context"

type contextKey string

const (
	ctxActorID contextKey = "actor_id"
)

// ActorFromContext returns the manager or system identity driving the request.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the acting identity into the context.
func WithActor(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}
