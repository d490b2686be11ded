package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/assignments"
	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

// DefaultCloneOffset is how far a clone is moved when no offset is given.
const DefaultCloneOffset = 7 * 24 * time.Hour

// Action is one of the closed set of bulk variants. The unexported apply
// method keeps the set closed to this package.
type Action interface {
	Type() enums.BulkActionType
	apply(ctx context.Context, run *run, shiftID uuid.UUID) (any, error)
}

// StatusChange moves every shift to Status through the transition executor.
type StatusChange struct {
	Status           enums.ShiftStatus `json:"newStatus"`
	BypassValidation bool              `json:"bypassValidation,omitempty"`
}

// Assign books Guard onto every shift.
type Assign struct {
	GuardID uuid.UUID `json:"guardId"`
	Replace bool      `json:"replace,omitempty"`
}

// PriorityUpdate sets the board priority of every shift.
type PriorityUpdate struct {
	Priority int `json:"priority"`
}

// Notify sends one notification per shift.
type Notify struct {
	Title      string              `json:"title,omitempty"`
	Message    string              `json:"message"`
	Recipients []string            `json:"recipients,omitempty"`
	Channels   []string            `json:"channels,omitempty"`
	Priority   enums.AlertPriority `json:"priority,omitempty"`
}

// Clone copies every shift, moved forward by Offset. A zero Offset uses the
// runner's configured clone offset.
type Clone struct {
	Offset time.Duration `json:"-"`
}

func (StatusChange) Type() enums.BulkActionType   { return enums.BulkActionStatusChange }
func (Assign) Type() enums.BulkActionType         { return enums.BulkActionAssign }
func (PriorityUpdate) Type() enums.BulkActionType { return enums.BulkActionPriorityUpdate }
func (Notify) Type() enums.BulkActionType         { return enums.BulkActionNotification }
func (Clone) Type() enums.BulkActionType          { return enums.BulkActionClone }

func (a StatusChange) apply(ctx context.Context, r *run, shiftID uuid.UUID) (any, error) {
	res, err := r.deps.transitions.ExecuteTransition(ctx, shiftID, a.Status, r.executedBy, workflow.Options{
		BypassValidation: a.BypassValidation,
		Method:           enums.TransitionMethodBulk,
		BulkOperationID:  &r.operationID,
		Reason:           r.reason,
	})
	if err != nil {
		return nil, err
	}
	r.warn(shiftID, res.Warnings...)
	return map[string]any{"status": res.Shift.Status, "transitionId": res.Transition.ID}, nil
}

func (a Assign) apply(ctx context.Context, r *run, shiftID uuid.UUID) (any, error) {
	dto, err := r.deps.assigner.Assign(ctx, assignments.AssignInput{
		ShiftID:    shiftID,
		GuardID:    a.GuardID,
		AssignedBy: r.executedBy,
		Replace:    a.Replace,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"assignmentId": dto.ID, "guardId": dto.GuardID}, nil
}

func (a PriorityUpdate) apply(ctx context.Context, r *run, shiftID uuid.UUID) (any, error) {
	dto, err := r.deps.shifts.UpdatePriority(ctx, shiftID, a.Priority)
	if err != nil {
		return nil, err
	}
	return map[string]any{"priority": dto.Priority}, nil
}

func (a Notify) apply(ctx context.Context, r *run, shiftID uuid.UUID) (any, error) {
	shift, err := r.deps.finder.FindByID(ctx, shiftID)
	if err != nil {
		return nil, shiftLookupError(err)
	}
	req := notifications.Request{
		Type:       enums.NotificationTypeShiftUpdate,
		Title:      a.Title,
		Message:    a.Message,
		Recipients: a.Recipients,
		Channels:   a.Channels,
		Priority:   a.Priority,
	}
	if err := r.deps.notifier.NotifyShift(ctx, *shift, req, r.executedBy); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification")
	}
	return map[string]any{"notified": true}, nil
}

func (a Clone) apply(ctx context.Context, r *run, shiftID uuid.UUID) (any, error) {
	offset := a.Offset
	if offset == 0 {
		offset = r.deps.cloneOffset
	}
	dto, err := r.deps.shifts.Clone(ctx, shiftID, offset, r.executedBy)
	if err != nil {
		return nil, err
	}
	return map[string]any{"shiftId": dto.ID, "startTime": dto.StartTime}, nil
}

type cloneParams struct {
	OffsetHours *float64 `json:"offsetHours"`
}

// ParseAction decodes the request parameters for actionType into its variant.
func ParseAction(actionType string, parameters json.RawMessage) (Action, error) {
	kind, err := enums.ParseBulkActionType(strings.TrimSpace(actionType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "unknown bulk action")
	}
	params := bytes.TrimSpace(parameters)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		params = []byte("{}")
	}
	decode := func(dst any) error {
		if err := json.Unmarshal(params, dst); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, fmt.Sprintf("invalid %s parameters", kind))
		}
		return nil
	}

	switch kind {
	case enums.BulkActionStatusChange:
		var a StatusChange
		if err := decode(&a); err != nil {
			return nil, err
		}
		if !a.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("invalid target status %q", a.Status))
		}
		return a, nil
	case enums.BulkActionAssign:
		var a Assign
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.GuardID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "guardId required")
		}
		return a, nil
	case enums.BulkActionPriorityUpdate:
		var raw struct {
			Priority *int `json:"priority"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		if raw.Priority == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "priority required")
		}
		return PriorityUpdate{Priority: *raw.Priority}, nil
	case enums.BulkActionNotification:
		var a Notify
		if err := decode(&a); err != nil {
			return nil, err
		}
		if strings.TrimSpace(a.Message) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "message required")
		}
		if a.Priority != "" && !a.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("invalid priority %q", a.Priority))
		}
		return a, nil
	case enums.BulkActionClone:
		var raw cloneParams
		if err := decode(&raw); err != nil {
			return nil, err
		}
		var a Clone
		if raw.OffsetHours != nil {
			hours := *raw.OffsetHours
			if hours == 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "offsetHours must be a non-zero number")
			}
			a.Offset = time.Duration(hours * float64(time.Hour))
		}
		return a, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("unsupported bulk action %q", kind))
}
