package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	"github.com/angelmondragon/guardforce-backend/internal/kanban"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

type fakeKanban struct {
	boardFn func(ctx context.Context, managerID *string, filters kanban.Filters) (*kanban.BoardData, error)
	moveFn  func(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error)
	bulkFn  func(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error)
	getFn   func(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error)
}

func (f fakeKanban) GetKanbanBoardData(ctx context.Context, managerID *string, filters kanban.Filters) (*kanban.BoardData, error) {
	return f.boardFn(ctx, managerID, filters)
}

func (f fakeKanban) MoveShift(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error) {
	return f.moveFn(ctx, input)
}

func (f fakeKanban) ExecuteBulkAction(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error) {
	return f.bulkFn(ctx, req, executedBy)
}

func (f fakeKanban) GetBulkOperation(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error) {
	return f.getFn(ctx, id)
}

func TestGetKanbanBoardParsesFilters(t *testing.T) {
	clientID := uuid.New()
	var (
		gotManager *string
		got        kanban.Filters
	)
	svc := fakeKanban{boardFn: func(ctx context.Context, managerID *string, filters kanban.Filters) (*kanban.BoardData, error) {
		gotManager = managerID
		got = filters
		return &kanban.BoardData{Columns: []kanban.ColumnView{}}, nil
	}}

	rec := serve(GetKanbanBoard(svc, nil), testRequest{
		method: http.MethodGet,
		path:   "/api/v1/kanban?managerId=mgr-9&status=assigned,confirmed&status=in_progress&from=2026-03-01T00:00:00Z&clientId=" + clientID.String() + "&assigned=true&urgentOnly=1&priority=3",
		actor:  "mgr-9",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotManager == nil || *gotManager != "mgr-9" {
		t.Fatalf("expected manager filter, got %v", gotManager)
	}
	if len(got.Statuses) != 3 || got.Statuses[2] != enums.ShiftStatusInProgress {
		t.Fatalf("unexpected statuses %v", got.Statuses)
	}
	if got.From == nil || !got.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", got.From)
	}
	if got.To != nil {
		t.Fatalf("expected open-ended to, got %v", got.To)
	}
	if got.ClientID == nil || *got.ClientID != clientID {
		t.Fatalf("unexpected client %v", got.ClientID)
	}
	if got.Assigned == nil || !*got.Assigned || !got.UrgentOnly {
		t.Fatalf("unexpected boolean filters %+v", got)
	}
	if got.Priority == nil || *got.Priority != 3 {
		t.Fatalf("unexpected priority %v", got.Priority)
	}
}

func TestGetKanbanBoardRejectsBadFilters(t *testing.T) {
	svc := fakeKanban{boardFn: func(ctx context.Context, managerID *string, filters kanban.Filters) (*kanban.BoardData, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	cases := map[string]struct {
		query string
		code  pkgerrors.Code
	}{
		"status":  {"status=pending", pkgerrors.CodeInvalidStatus},
		"from":    {"from=yesterday", pkgerrors.CodeInvalidRequest},
		"guard":   {"guardId=abc", pkgerrors.CodeInvalidRequest},
		"boolean": {"assigned=maybe", pkgerrors.CodeInvalidRequest},
	}
	for name, tc := range cases {
		rec := serve(GetKanbanBoard(svc, nil), testRequest{method: http.MethodGet, path: "/api/v1/kanban?" + tc.query, actor: "mgr"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		if code := errorCode(t, rec); code != string(tc.code) {
			t.Fatalf("%s: expected %s, got %s", name, tc.code, code)
		}
	}
}

func TestMoveShiftPassesManualInput(t *testing.T) {
	shiftID := uuid.New()
	var got kanban.MoveInput
	svc := fakeKanban{moveFn: func(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error) {
		got = input
		return &workflow.TransitionResult{
			Shift:      models.Shift{ID: shiftID, Status: enums.ShiftStatusAssigned},
			Transition: models.WorkflowTransition{ShiftID: shiftID, PreviousStatus: enums.ShiftStatusUnassigned, NewStatus: enums.ShiftStatusAssigned, TransitionMethod: enums.TransitionMethodManual},
		}, nil
	}}

	rec := serve(MoveShift(svc, nil), testRequest{
		method: http.MethodPost,
		path:   "/api/v1/shifts/" + shiftID.String() + "/move",
		body:   `{"newStatus":" assigned ","reason":"  covering  "}`,
		actor:  "mgr-1",
		params: map[string]string{"shiftID": shiftID.String()},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.ShiftID != shiftID || got.NewStatus != enums.ShiftStatusAssigned || got.ChangedBy != "mgr-1" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Reason == nil || *got.Reason != "covering" {
		t.Fatalf("expected trimmed reason, got %v", got.Reason)
	}

	var body moveShiftResponse
	decodeData(t, rec, &body)
	if body.Transition.NewStatus != enums.ShiftStatusAssigned || body.Shift.ID != shiftID {
		t.Fatalf("unexpected response %+v", body)
	}
	if body.Warnings == nil {
		t.Fatal("expected empty warnings list, got null")
	}
}

func TestMoveShiftSurfacesRuleFailure(t *testing.T) {
	shiftID := uuid.New()
	svc := fakeKanban{moveFn: func(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeGuardAssignmentRequired, "assign a guard first")
	}}

	rec := serve(MoveShift(svc, nil), testRequest{
		method: http.MethodPost,
		body:   `{"newStatus":"assigned"}`,
		actor:  "mgr-1",
		params: map[string]string{"shiftID": shiftID.String()},
		path:   "/",
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeGuardAssignmentRequired) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestMoveShiftRejectsBadInput(t *testing.T) {
	shiftID := uuid.New().String()
	svc := fakeKanban{moveFn: func(ctx context.Context, input kanban.MoveInput) (*workflow.TransitionResult, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	cases := []struct {
		name   string
		req    testRequest
		status int
	}{
		{"no actor", testRequest{body: `{"newStatus":"assigned"}`, params: map[string]string{"shiftID": shiftID}}, http.StatusUnauthorized},
		{"bad id", testRequest{body: `{"newStatus":"assigned"}`, actor: "mgr", params: map[string]string{"shiftID": "nope"}}, http.StatusBadRequest},
		{"missing status", testRequest{body: `{}`, actor: "mgr", params: map[string]string{"shiftID": shiftID}}, http.StatusBadRequest},
		{"unknown status", testRequest{body: `{"newStatus":"done"}`, actor: "mgr", params: map[string]string{"shiftID": shiftID}}, http.StatusBadRequest},
		{"unknown field", testRequest{body: `{"newStatus":"assigned","force":true}`, actor: "mgr", params: map[string]string{"shiftID": shiftID}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		tc.req.method = http.MethodPost
		tc.req.path = "/"
		rec := serve(MoveShift(svc, nil), tc.req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}
