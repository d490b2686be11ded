package kanban

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

type boardAssembler interface {
	GetKanbanBoardData(ctx context.Context, managerID *string, filters Filters) (*BoardData, error)
}

type shiftMover interface {
	ExecuteTransition(ctx context.Context, shiftID uuid.UUID, newStatus enums.ShiftStatus, changedBy string, opts workflow.Options) (*workflow.TransitionResult, error)
	AddHook(h workflow.Hook)
}

type bulkRunner interface {
	ExecuteBulkAction(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error)
	Get(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error)
}

type hookProvider interface {
	Hook() workflow.Hook
}

// MoveInput is a manual drag of one card to another column.
type MoveInput struct {
	ShiftID          uuid.UUID
	NewStatus        enums.ShiftStatus
	ChangedBy        string
	Reason           *string
	BypassValidation bool
}

// ServiceParams wires the Kanban facade.
type ServiceParams struct {
	Board    boardAssembler
	Executor shiftMover
	Bulk     bulkRunner
	// Resolver, when set, is registered on Executor so every committed
	// transition auto-resolves the alerts it satisfies.
	Resolver hookProvider
}

// Service is the single entry point the HTTP layer uses for the board.
type Service struct {
	board    boardAssembler
	executor shiftMover
	bulk     bulkRunner
}

// NewService builds the Kanban facade.
func NewService(params ServiceParams) (*Service, error) {
	if params.Board == nil {
		return nil, fmt.Errorf("board assembler required")
	}
	if params.Executor == nil {
		return nil, fmt.Errorf("transition executor required")
	}
	if params.Bulk == nil {
		return nil, fmt.Errorf("bulk runner required")
	}
	if params.Resolver != nil {
		params.Executor.AddHook(params.Resolver.Hook())
	}
	return &Service{board: params.Board, executor: params.Executor, bulk: params.Bulk}, nil
}

func (s *Service) GetKanbanBoardData(ctx context.Context, managerID *string, filters Filters) (*BoardData, error) {
	if managerID != nil && strings.TrimSpace(*managerID) == "" {
		managerID = nil
	}
	return s.board.GetKanbanBoardData(ctx, managerID, filters)
}

// MoveShift applies a manual transition.
func (s *Service) MoveShift(ctx context.Context, input MoveInput) (*workflow.TransitionResult, error) {
	if input.ShiftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "shift id required")
	}
	changedBy := strings.TrimSpace(input.ChangedBy)
	if changedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "changedBy required")
	}
	return s.executor.ExecuteTransition(ctx, input.ShiftID, input.NewStatus, changedBy, workflow.Options{
		BypassValidation: input.BypassValidation,
		Method:           enums.TransitionMethodManual,
		Reason:           input.Reason,
	})
}

func (s *Service) ExecuteBulkAction(ctx context.Context, req bulk.Request, executedBy string) (*bulk.Result, error) {
	return s.bulk.ExecuteBulkAction(ctx, req, executedBy)
}

func (s *Service) GetBulkOperation(ctx context.Context, id uuid.UUID) (*bulk.OperationDTO, error) {
	return s.bulk.Get(ctx, id)
}
