package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

// ActorHeader carries the caller identity. Authentication happens upstream
// of this service; the header is trusted as-is.
const ActorHeader = "X-Actor-Id"

const maxActorLength = 128

// Actor requires the actor header and stores it on the request context.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := validators.SanitizeString(r.Header.Get(ActorHeader), maxActorLength)
			if actor == "" || strings.ContainsAny(actor, "|\n\r") {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, ActorHeader+" header required"))
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
