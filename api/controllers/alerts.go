package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

// AlertMonitor runs one urgency scan on demand.
type AlertMonitor interface {
	MonitorShiftsForAlerts(ctx context.Context) (*alerts.MonitorResult, error)
}

func ListAlerts(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable"))
			return
		}

		params := alerts.ListParams{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}

		shiftID, err := queryUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.ShiftID = shiftID

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			alertType, err := enums.ParseAlertType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid alert type"))
				return
			}
			params.Type = &alertType
		}

		for _, raw := range queryList(r, "status") {
			status, err := enums.ParseAlertStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid alert status"))
				return
			}
			params.Statuses = append(params.Statuses, status)
		}

		limit, err := validators.QueryInt(r, "limit", limitRange)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable"))
			return
		}

		id, err := pathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

func AcknowledgeAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.Acknowledge(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

type resolveAlertRequest struct {
	Note *string `json:"note" validate:"omitempty,max=1000"`
}

// ResolveAlert closes an alert by hand. The body is optional.
func ResolveAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveAlertRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		alert, err := svc.Resolve(r.Context(), id, actor, optionalString(req.Note))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

// RunMonitor triggers an urgency scan outside the cron cadence.
func RunMonitor(monitor AlertMonitor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if monitor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "urgency monitor unavailable"))
			return
		}

		result, err := monitor.MonitorShiftsForAlerts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
