package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/internal/assignments"
	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

// DefaultMaxShifts caps a single bulk request when no limit is configured.
const DefaultMaxShifts = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitioner interface {
	ExecuteTransition(ctx context.Context, shiftID uuid.UUID, newStatus enums.ShiftStatus, changedBy string, opts workflow.Options) (*workflow.TransitionResult, error)
}

type assigner interface {
	Assign(ctx context.Context, input assignments.AssignInput) (*assignments.AssignmentDTO, error)
}

type shiftEditor interface {
	UpdatePriority(ctx context.Context, id uuid.UUID, priority int) (*shifts.ShiftDTO, error)
	Clone(ctx context.Context, id uuid.UUID, offset time.Duration, actor string) (*shifts.ShiftDTO, error)
}

type shiftFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
}

type shiftNotifier interface {
	NotifyShift(ctx context.Context, shift models.Shift, req notifications.Request, actor string) error
}

type itemMetrics interface {
	ObserveBulkItem(action string, err error)
}

// RunnerParams wires a Runner.
type RunnerParams struct {
	Repo        Repository
	Tx          txRunner
	Outbox      outbox.Emitter
	Transitions transitioner
	Assigner    assigner
	Shifts      shiftEditor
	Finder      shiftFinder
	Notifier    shiftNotifier
	Metrics     itemMetrics
	Logger      *logger.Logger
	MaxShifts   int
	CloneOffset time.Duration
	Now         func() time.Time
}

// Runner applies one action to many shifts, one at a time.
type Runner struct {
	repo        Repository
	tx          txRunner
	outbox      outbox.Emitter
	transitions transitioner
	assigner    assigner
	shifts      shiftEditor
	finder      shiftFinder
	notifier    shiftNotifier
	metrics     itemMetrics
	logg        *logger.Logger
	maxShifts   int
	cloneOffset time.Duration
	now         func() time.Time
}

// NewRunner validates params and builds a Runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("bulk repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Transitions == nil:
		return nil, fmt.Errorf("transition executor required")
	case params.Assigner == nil:
		return nil, fmt.Errorf("assignment service required")
	case params.Shifts == nil:
		return nil, fmt.Errorf("shift service required")
	case params.Finder == nil:
		return nil, fmt.Errorf("shift finder required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	}
	maxShifts := params.MaxShifts
	if maxShifts <= 0 {
		maxShifts = DefaultMaxShifts
	}
	cloneOffset := params.CloneOffset
	if cloneOffset == 0 {
		cloneOffset = DefaultCloneOffset
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		transitions: params.Transitions,
		assigner:    params.Assigner,
		shifts:      params.Shifts,
		finder:      params.Finder,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		logg:        params.Logger,
		maxShifts:   maxShifts,
		cloneOffset: cloneOffset,
		now:         now,
	}, nil
}

// run carries the per-operation state handed to each action.
type run struct {
	deps        *Runner
	operationID uuid.UUID
	executedBy  string
	reason      *string
	warnings    []string
}

func (r *run) warn(shiftID uuid.UUID, msgs ...string) {
	for _, msg := range msgs {
		r.warnings = append(r.warnings, fmt.Sprintf("shift %s: %s", shiftID, msg))
	}
}

// ExecuteBulkAction applies req.Action to every shift in req.ShiftIDs in
// order. A failing shift is recorded and the run moves on; the operation is
// completed only when every shift succeeded.
func (r *Runner) ExecuteBulkAction(ctx context.Context, req Request, executedBy string) (*Result, error) {
	executedBy = strings.TrimSpace(executedBy)
	if executedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "executedBy required")
	}
	action, err := ParseAction(req.Action, req.Parameters)
	if err != nil {
		return nil, err
	}
	if len(req.ShiftIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "shiftIds required")
	}
	if len(req.ShiftIDs) > r.maxShifts {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("at most %d shifts per bulk action", r.maxShifts))
	}

	op := &models.BulkOperation{
		ID:            uuid.New(),
		OperationType: action.Type(),
		ShiftIDs:      append([]uuid.UUID(nil), req.ShiftIDs...),
		Parameters:    normalizeParameters(req.Parameters),
		Reason:        trimmedReason(req.Reason),
		ExecutedBy:    executedBy,
		ExecutedAt:    r.now().UTC(),
		Status:        enums.BulkOperationExecuting,
		Results:       json.RawMessage("[]"),
	}
	if err := r.repo.Create(ctx, op); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBulkAction, err, "record bulk operation")
	}

	if r.logg != nil {
		ctx = r.logg.WithBulkOperationID(ctx, op.ID.String())
	}

	state := &run{deps: r, operationID: op.ID, executedBy: executedBy, reason: op.Reason}
	results := make([]ItemResult, 0, len(req.ShiftIDs))
	for _, shiftID := range req.ShiftIDs {
		results = append(results, r.applyOne(ctx, state, action, shiftID))
	}

	finish(op, results, r.now().UTC())
	// The outcome is recorded even when the caller has gone away.
	if err := r.record(context.WithoutCancel(ctx), op); err != nil {
		msg := fmt.Sprintf("%s: record bulk outcome: %v", pkgerrors.CodeBulkAction, err)
		state.warnings = append(state.warnings, msg)
		if r.logg != nil {
			r.logg.Error(ctx, "bulk operation outcome not recorded", err)
		}
	}

	if r.logg != nil {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"action":  string(op.OperationType),
			"status":  string(op.Status),
			"success": op.SuccessCount,
			"failure": op.FailureCount,
		}), "bulk operation finished")
	}

	dto := FromModel(op)
	dto.Results = results
	warnings := state.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &Result{Operation: *dto, Warnings: warnings}, nil
}

// Get loads a previously executed operation.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*OperationDTO, error) {
	op, err := r.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk operation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bulk operation")
	}
	return FromModel(op), nil
}

func (r *Runner) applyOne(ctx context.Context, state *run, action Action, shiftID uuid.UUID) (item ItemResult) {
	item.ShiftID = shiftID
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			item = failed(shiftID, err)
		}
		if r.metrics != nil {
			r.metrics.ObserveBulkItem(string(action.Type()), err)
		}
	}()

	if err = ctx.Err(); err != nil {
		return failed(shiftID, err)
	}
	value, err := action.apply(ctx, state, shiftID)
	if err != nil {
		if r.logg != nil {
			r.logg.Warn(r.logg.WithShiftID(ctx, shiftID.String()), fmt.Sprintf("bulk %s failed: %v", action.Type(), err))
		}
		return failed(shiftID, err)
	}
	return ItemResult{ShiftID: shiftID, Success: true, NewValue: value}
}

func (r *Runner) record(ctx context.Context, op *models.BulkOperation) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := r.repo.WithTx(tx).Complete(ctx, op); err != nil {
			return err
		}
		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBulkOperationCompleted,
			AggregateType: enums.AggregateBulkOperation,
			AggregateID:   op.ID,
			Actor:         &outbox.ActorRef{ActorID: op.ExecutedBy, Method: string(enums.TransitionMethodBulk)},
			Data: payloads.BulkOperationCompletedEvent{
				OperationID:  op.ID,
				Action:       op.OperationType,
				Status:       op.Status,
				ShiftCount:   len(op.ShiftIDs),
				SuccessCount: op.SuccessCount,
				FailureCount: op.FailureCount,
				ExecutedBy:   op.ExecutedBy,
				Reason:       op.Reason,
			},
		})
	})
}

func finish(op *models.BulkOperation, results []ItemResult, at time.Time) {
	op.SuccessCount, op.FailureCount = 0, 0
	for _, res := range results {
		if res.Success {
			op.SuccessCount++
		} else {
			op.FailureCount++
		}
	}
	op.Status = enums.BulkOperationCompleted
	if op.FailureCount > 0 {
		op.Status = enums.BulkOperationFailed
	}
	if encoded, err := json.Marshal(results); err == nil {
		op.Results = encoded
	}
	op.CompletedAt = &at
}

func failed(shiftID uuid.UUID, err error) ItemResult {
	return ItemResult{ShiftID: shiftID, Success: false, Error: itemError(err)}
}

func itemError(err error) *ItemError {
	if typed := pkgerrors.As(err); typed != nil {
		return &ItemError{Code: string(typed.Code()), Message: typed.Message()}
	}
	return &ItemError{Code: string(pkgerrors.CodeBulkAction), Message: err.Error()}
}

func shiftLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shift")
}

func normalizeParameters(raw json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func trimmedReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
