package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/api/responses"
	"github.com/angelmondragon/guardforce-backend/api/validators"
	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	"github.com/angelmondragon/guardforce-backend/internal/kanban"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

// KanbanService is the board facade the HTTP layer drives.
type KanbanService interface {
	GetKanbanBoardData(ctx context.Context, managerID *string, filters kanban.Filters) (*kanban.BoardData, error)
	MoveShift(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error)
	ExecuteBulkAction(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error)
	GetBulkOperation(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error)
}

// GetKanbanBoard returns the columns, open alerts and metrics for the board.
func GetKanbanBoard(svc KanbanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kanban service unavailable"))
			return
		}

		filters, err := parseBoardFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var managerID *string
		if m := validators.SanitizeString(r.URL.Query().Get("managerId"), 128); m != "" {
			managerID = &m
		}

		board, err := svc.GetKanbanBoardData(r.Context(), managerID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

func parseBoardFilters(r *http.Request) (kanban.Filters, error) {
	var (
		filters kanban.Filters
		err     error
	)
	if filters.From, err = queryTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = queryTime(r, "to"); err != nil {
		return filters, err
	}
	if filters.ClientID, err = queryUUID(r, "clientId"); err != nil {
		return filters, err
	}
	if filters.SiteID, err = queryUUID(r, "siteId"); err != nil {
		return filters, err
	}
	if filters.GuardID, err = queryUUID(r, "guardId"); err != nil {
		return filters, err
	}
	if filters.Assigned, err = queryBool(r, "assigned"); err != nil {
		return filters, err
	}
	urgent, err := queryBool(r, "urgentOnly")
	if err != nil {
		return filters, err
	}
	filters.UrgentOnly = urgent != nil && *urgent

	if strings.TrimSpace(r.URL.Query().Get("priority")) != "" {
		priority, err := validators.QueryInt(r, "priority", validators.IntRange{Max: 1000})
		if err != nil {
			return filters, err
		}
		filters.Priority = &priority
	}

	for _, raw := range queryList(r, "status") {
		status, err := enums.ParseShiftStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "invalid status filter").WithDetails(map[string]any{"status": raw})
		}
		filters.Statuses = append(filters.Statuses, status)
	}
	return filters, nil
}

type moveShiftRequest struct {
	NewStatus        string  `json:"newStatus" validate:"required"`
	Reason           *string `json:"reason" validate:"omitempty,max=500"`
	BypassValidation bool    `json:"bypassValidation"`
}

type moveShiftResponse struct {
	Shift      *shifts.ShiftDTO           `json:"shift"`
	Transition shifts.TransitionDTO       `json:"transition"`
	Validation *workflow.ValidationResult `json:"validation,omitempty"`
	Warnings   []string                   `json:"warnings"`
}

// MoveShift drags one card to another column.
func MoveShift(svc KanbanService, logg *logger.Logger) http.HandlerFunc {
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

		shiftID, err := pathUUID(r, "shiftID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moveShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseShiftStatus(strings.TrimSpace(req.NewStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "invalid newStatus"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithShiftID(ctx, shiftID.String())
		}

		result, err := svc.MoveShift(ctx, kanban.MoveInput{
			ShiftID:          shiftID,
			NewStatus:        status,
			ChangedBy:        actor,
			Reason:           optionalString(req.Reason),
			BypassValidation: req.BypassValidation,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		warnings := result.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		responses.WriteSuccess(w, moveShiftResponse{
			Shift:      shifts.FromModel(&result.Shift),
			Transition: shifts.TransitionFromModel(result.Transition),
			Validation: result.Validation,
			Warnings:   warnings,
		})
	}
}
