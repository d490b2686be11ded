package controllers

import (
	"net/http"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

// ExecuteBulkAction applies one action to many shifts and returns the
// per-shift outcome. A partially failed run still answers 200.
func ExecuteBulkAction(svc KanbanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kanban service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bulk.Request
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Reason = optionalString(req.Reason)

		result, err := svc.ExecuteBulkAction(r.Context(), req, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetBulkOperation(svc KanbanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kanban service unavailable"))
			return
		}

		id, err := pathUUID(r, "operationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		op, err := svc.GetBulkOperation(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, op)
	}
}
