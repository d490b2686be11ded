package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

type fakeAlerts struct {
	alerts.Service
	listFn    func(ctx context.Context, params alerts.ListParams) (*pagination.Page[alerts.AlertDTO], error)
	resolveFn func(ctx context.Context, id uuid.UUID, actor string, note *string) (*alerts.AlertDTO, error)
}

func (f fakeAlerts) List(ctx context.Context, params alerts.ListParams) (*pagination.Page[alerts.AlertDTO], error) {
	return f.listFn(ctx, params)
}

func (f fakeAlerts) Resolve(ctx context.Context, id uuid.UUID, actor string, note *string) (*alerts.AlertDTO, error) {
	return f.resolveFn(ctx, id, actor, note)
}

type fakeMonitor struct {
	result *alerts.MonitorResult
	err    error
}

func (f fakeMonitor) MonitorShiftsForAlerts(ctx context.Context) (*alerts.MonitorResult, error) {
	return f.result, f.err
}

func TestListAlertsParsesFilters(t *testing.T) {
	shiftID := uuid.New()
	var got alerts.ListParams
	svc := fakeAlerts{listFn: func(ctx context.Context, params alerts.ListParams) (*pagination.Page[alerts.AlertDTO], error) {
		got = params
		return &pagination.Page[alerts.AlertDTO]{Items: []alerts.AlertDTO{}}, nil
	}}

	rec := serve(ListAlerts(svc, nil), testRequest{
		method: http.MethodGet,
		path:   "/api/v1/alerts?shiftId=" + shiftID.String() + "&type=no_show_risk&status=active,acknowledged&limit=5",
		actor:  "mgr",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.ShiftID == nil || *got.ShiftID != shiftID {
		t.Fatalf("unexpected shift filter %v", got.ShiftID)
	}
	if got.Type == nil || *got.Type != enums.AlertTypeNoShowRisk {
		t.Fatalf("unexpected type filter %v", got.Type)
	}
	if len(got.Statuses) != 2 || got.Limit != 5 {
		t.Fatalf("unexpected params %+v", got)
	}

	rec = serve(ListAlerts(svc, nil), testRequest{method: http.MethodGet, path: "/api/v1/alerts?type=late", actor: "mgr"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestResolveAlertOptionalNote(t *testing.T) {
	id := uuid.New()
	var notes []*string
	svc := fakeAlerts{resolveFn: func(ctx context.Context, alertID uuid.UUID, actor string, note *string) (*alerts.AlertDTO, error) {
		notes = append(notes, note)
		return &alerts.AlertDTO{ID: alertID, Status: enums.AlertStatusResolved}, nil
	}}

	rec := serve(ResolveAlert(svc, nil), testRequest{method: http.MethodPost, path: "/", actor: "mgr", params: map[string]string{"alertID": id.String()}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without body, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(ResolveAlert(svc, nil), testRequest{method: http.MethodPost, path: "/", body: `{"note":" guard re-certified "}`, actor: "mgr", params: map[string]string{"alertID": id.String()}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with note, got %d", rec.Code)
	}

	if len(notes) != 2 || notes[0] != nil || notes[1] == nil || *notes[1] != "guard re-certified" {
		t.Fatalf("unexpected notes %v", notes)
	}
}

func TestResolveAlertNotFound(t *testing.T) {
	svc := fakeAlerts{resolveFn: func(ctx context.Context, alertID uuid.UUID, actor string, note *string) (*alerts.AlertDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeAlertNotFound, "alert not found")
	}}

	rec := serve(ResolveAlert(svc, nil), testRequest{method: http.MethodPost, path: "/", actor: "mgr", params: map[string]string{"alertID": uuid.NewString()}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeAlertNotFound) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestRunMonitor(t *testing.T) {
	monitor := fakeMonitor{result: &alerts.MonitorResult{Scanned: 4, Alerts: []alerts.AlertDTO{}, Escalated: []alerts.AlertDTO{}, Warnings: []string{}}}

	rec := serve(RunMonitor(monitor, nil), testRequest{method: http.MethodPost, path: "/", actor: "mgr"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result alerts.MonitorResult
	decodeData(t, rec, &result)
	if result.Scanned != 4 {
		t.Fatalf("unexpected result %+v", result)
	}

	failing := fakeMonitor{err: pkgerrors.Wrap(pkgerrors.CodeMonitoring, errors.New("db down"), "list upcoming shifts")}
	rec = serve(RunMonitor(failing, nil), testRequest{method: http.MethodPost, path: "/", actor: "mgr"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeMonitoring) {
		t.Fatalf("unexpected code %s", code)
	}
}
