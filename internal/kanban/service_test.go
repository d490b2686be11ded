package kanban

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

type fakeBoard struct {
	managerID *string
}

func (f *fakeBoard) GetKanbanBoardData(ctx context.Context, managerID *string, filters Filters) (*BoardData, error) {
	f.managerID = managerID
	return &BoardData{}, nil
}

type fakeMover struct {
	hooks []workflow.Hook
	opts  workflow.Options
	by    string
}

func (f *fakeMover) ExecuteTransition(ctx context.Context, shiftID uuid.UUID, newStatus enums.ShiftStatus, changedBy string, opts workflow.Options) (*workflow.TransitionResult, error) {
	f.opts = opts
	f.by = changedBy
	return &workflow.TransitionResult{Shift: models.Shift{ID: shiftID, Status: newStatus}}, nil
}

func (f *fakeMover) AddHook(h workflow.Hook) { f.hooks = append(f.hooks, h) }

type fakeBulk struct {
	req bulk.Request
}

func (f *fakeBulk) ExecuteBulkAction(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error) {
	f.req = req
	return &bulk.Result{Operation: bulk.OperationDTO{ExecutedBy: executedBy}}, nil
}

func (f *fakeBulk) Get(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error) {
	return &bulk.OperationDTO{ID: id}, nil
}

type stubResolver struct{}

func (stubResolver) Hook() workflow.Hook {
	return workflow.HookFunc(func(ctx context.Context, shift models.Shift, transition models.WorkflowTransition) ([]string, error) {
		return nil, nil
	})
}

func TestNewServiceRegistersResolverHook(t *testing.T) {
	mover := &fakeMover{}
	_, err := NewService(ServiceParams{Board: &fakeBoard{}, Executor: mover, Bulk: &fakeBulk{}, Resolver: stubResolver{}})
	require.NoError(t, err)
	assert.Len(t, mover.hooks, 1)

	_, err = NewService(ServiceParams{Executor: mover, Bulk: &fakeBulk{}})
	require.Error(t, err)
}

func TestMoveShiftIsManual(t *testing.T) {
	mover := &fakeMover{}
	svc, err := NewService(ServiceParams{Board: &fakeBoard{}, Executor: mover, Bulk: &fakeBulk{}})
	require.NoError(t, err)

	reason := "guard on site"
	res, err := svc.MoveShift(context.Background(), MoveInput{
		ShiftID:   uuid.New(),
		NewStatus: enums.ShiftStatusInProgress,
		ChangedBy: " mgr-1 ",
		Reason:    &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ShiftStatusInProgress, res.Shift.Status)
	assert.Equal(t, enums.TransitionMethodManual, mover.opts.Method)
	assert.Nil(t, mover.opts.BulkOperationID)
	assert.Equal(t, &reason, mover.opts.Reason)
	assert.Equal(t, "mgr-1", mover.by)

	_, err = svc.MoveShift(context.Background(), MoveInput{ShiftID: uuid.New(), NewStatus: enums.ShiftStatusAssigned})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidRequest, pkgerrors.As(err).Code())
}

func TestServiceDelegatesBoardAndBulk(t *testing.T) {
	board := &fakeBoard{}
	runner := &fakeBulk{}
	svc, err := NewService(ServiceParams{Board: board, Executor: &fakeMover{}, Bulk: runner})
	require.NoError(t, err)
	ctx := context.Background()

	blank := "  "
	_, err = svc.GetKanbanBoardData(ctx, &blank, Filters{})
	require.NoError(t, err)
	assert.Nil(t, board.managerID)

	req := bulk.Request{Action: "clone", ShiftIDs: []uuid.UUID{uuid.New()}}
	res, err := svc.ExecuteBulkAction(ctx, req, "mgr-2")
	require.NoError(t, err)
	assert.Equal(t, "mgr-2", res.Operation.ExecutedBy)
	assert.Equal(t, req.ShiftIDs, runner.req.ShiftIDs)

	id := uuid.New()
	op, err := svc.GetBulkOperation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, op.ID)
}
