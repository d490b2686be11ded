package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	"github.com/angelmondragon/guardforce-backend/internal/assignments"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

type assignGuardRequest struct {
	GuardID uuid.UUID `json:"guardId" validate:"required"`
	Replace bool      `json:"replace"`
}

// AssignGuard books a guard as pending. The card stays in its column until
// a move.
func AssignGuard(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shiftID, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignGuardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Assign(r.Context(), assignments.AssignInput{
			ShiftID:    shiftID,
			GuardID:    req.GuardID,
			AssignedBy: actor,
			Replace:    req.Replace,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

func ListAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		shiftID, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), shiftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

func ConfirmAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return assignmentAction(svc, logg, func(r *http.Request, shiftID, assignmentID uuid.UUID, actor string) (*assignments.AssignmentDTO, error) {
		return svc.Confirm(r.Context(), shiftID, assignmentID, actor)
	})
}

func CancelAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return assignmentAction(svc, logg, func(r *http.Request, shiftID, assignmentID uuid.UUID, actor string) (*assignments.AssignmentDTO, error) {
		return svc.Cancel(r.Context(), shiftID, assignmentID, actor)
	})
}

type assignmentFn func(r *http.Request, shiftID, assignmentID uuid.UUID, actor string) (*assignments.AssignmentDTO, error)

func assignmentAction(svc assignments.Service, logg *logger.Logger, fn assignmentFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shiftID, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := pathUUID(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := fn(r, shiftID, assignmentID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}
