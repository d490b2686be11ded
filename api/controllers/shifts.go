package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

type createShiftRequest struct {
	Title                  string          `json:"title" validate:"required,max=200"`
	StartTime              time.Time       `json:"startTime" validate:"required"`
	EndTime                time.Time       `json:"endTime" validate:"required"`
	Priority               int             `json:"priority" validate:"min=0,max=1000"`
	RequiredCertifications []string        `json:"requiredCertifications" validate:"omitempty,max=20,dive,required,max=64"`
	RequiredGuards         int             `json:"requiredGuards" validate:"min=0,max=50"`
	ClientInfo             json.RawMessage `json:"clientInfo"`
	LocationData           json.RawMessage `json:"locationData"`
	ClientID               *uuid.UUID      `json:"clientId"`
	SiteID                 *uuid.UUID      `json:"siteId"`
	ManagerID              *string         `json:"managerId" validate:"omitempty,max=128"`
}

// CreateShift takes a new shift in as unassigned.
func CreateShift(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Create(r.Context(), shifts.CreateShiftInput{
			Title:                  validators.SanitizeString(req.Title, 200),
			StartTime:              req.StartTime,
			EndTime:                req.EndTime,
			Priority:               req.Priority,
			RequiredCertifications: req.RequiredCertifications,
			RequiredGuards:         req.RequiredGuards,
			ClientInfo:             req.ClientInfo,
			LocationData:           req.LocationData,
			ClientID:               req.ClientID,
			SiteID:                 req.SiteID,
			ManagerID:              optionalString(req.ManagerID),
			CreatedBy:              actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shift)
	}
}

func GetShift(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		id, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shift)
	}
}

// ShiftHistory returns the audit trail newest first.
func ShiftHistory(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		id, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.QueryInt(r, "limit", limitRange)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), id, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AllowedTransitions lists the columns a card may move to with a dry-run
// verdict for each.
func AllowedTransitions(svc shifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		id, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		options, err := svc.AllowedTransitions(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"transitions": options})
	}
}
