package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

type fakeShiftService struct {
	shifts.Service
	createFn  func(ctx context.Context, input shifts.CreateShiftInput) (*shifts.ShiftDTO, error)
	getFn     func(ctx context.Context, id uuid.UUID) (*shifts.ShiftDTO, error)
	historyFn func(ctx context.Context, id uuid.UUID, params pagination.Params) (*pagination.Page[shifts.TransitionDTO], error)
}

func (f fakeShiftService) Create(ctx context.Context, input shifts.CreateShiftInput) (*shifts.ShiftDTO, error) {
	return f.createFn(ctx, input)
}

func (f fakeShiftService) Get(ctx context.Context, id uuid.UUID) (*shifts.ShiftDTO, error) {
	return f.getFn(ctx, id)
}

func (f fakeShiftService) History(ctx context.Context, id uuid.UUID, params pagination.Params) (*pagination.Page[shifts.TransitionDTO], error) {
	return f.historyFn(ctx, id, params)
}

func TestCreateShiftUsesActor(t *testing.T) {
	var got shifts.CreateShiftInput
	svc := fakeShiftService{createFn: func(ctx context.Context, input shifts.CreateShiftInput) (*shifts.ShiftDTO, error) {
		got = input
		return &shifts.ShiftDTO{ID: uuid.New(), Title: input.Title, Status: enums.ShiftStatusUnassigned}, nil
	}}

	rec := serve(CreateShift(svc, nil), testRequest{
		method: http.MethodPost,
		path:   "/api/v1/shifts",
		body:   `{"title":" Night patrol ","startTime":"2026-03-02T22:00:00Z","endTime":"2026-03-03T06:00:00Z","priority":2,"requiredCertifications":["armed"],"requiredGuards":2,"managerId":"mgr-4"}`,
		actor:  "mgr-4",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.CreatedBy != "mgr-4" || got.Title != "Night patrol" || got.RequiredGuards != 2 {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.ManagerID == nil || *got.ManagerID != "mgr-4" {
		t.Fatalf("unexpected manager %v", got.ManagerID)
	}

	var dto shifts.ShiftDTO
	decodeData(t, rec, &dto)
	if dto.Status != enums.ShiftStatusUnassigned {
		t.Fatalf("unexpected status %s", dto.Status)
	}
}

func TestCreateShiftValidation(t *testing.T) {
	svc := fakeShiftService{createFn: func(ctx context.Context, input shifts.CreateShiftInput) (*shifts.ShiftDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	for name, body := range map[string]string{
		"missing title":  `{"startTime":"2026-03-02T22:00:00Z","endTime":"2026-03-03T06:00:00Z"}`,
		"missing start":  `{"title":"x","endTime":"2026-03-03T06:00:00Z"}`,
		"negative":       `{"title":"x","startTime":"2026-03-02T22:00:00Z","endTime":"2026-03-03T06:00:00Z","priority":-1}`,
		"blank cert":     `{"title":"x","startTime":"2026-03-02T22:00:00Z","endTime":"2026-03-03T06:00:00Z","requiredCertifications":[""]}`,
		"malformed json": `{"title":`,
	} {
		rec := serve(CreateShift(svc, nil), testRequest{method: http.MethodPost, path: "/", body: body, actor: "mgr"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		if code := errorCode(t, rec); code != string(pkgerrors.CodeInvalidRequest) {
			t.Fatalf("%s: unexpected code %s", name, code)
		}
	}
}

func TestGetShiftNotFound(t *testing.T) {
	svc := fakeShiftService{getFn: func(ctx context.Context, id uuid.UUID) (*shifts.ShiftDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
	}}

	rec := serve(GetShift(svc, nil), testRequest{method: http.MethodGet, path: "/", actor: "mgr", params: map[string]string{"shiftID": uuid.NewString()}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeShiftNotFound) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestShiftHistoryPagination(t *testing.T) {
	id := uuid.New()
	var got pagination.Params
	svc := fakeShiftService{historyFn: func(ctx context.Context, shiftID uuid.UUID, params pagination.Params) (*pagination.Page[shifts.TransitionDTO], error) {
		got = params
		return &pagination.Page[shifts.TransitionDTO]{Items: []shifts.TransitionDTO{}, NextCursor: "next"}, nil
	}}

	rec := serve(ShiftHistory(svc, nil), testRequest{method: http.MethodGet, path: "/?limit=10&cursor=abc", actor: "mgr", params: map[string]string{"shiftID": id.String()}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Limit != 10 || got.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", got)
	}

	rec = serve(ShiftHistory(svc, nil), testRequest{method: http.MethodGet, path: "/?limit=1000", actor: "mgr", params: map[string]string{"shiftID": id.String()}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}
