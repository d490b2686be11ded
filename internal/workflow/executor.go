package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitionObserver interface {
	ObserveTransition(to, method string, err error)
}

// Hook runs after a transition commits. Errors are reported as warnings and
// never undo the transition.
type Hook interface {
	AfterTransition(ctx context.Context, shift models.Shift, transition models.WorkflowTransition) ([]string, error)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, shift models.Shift, transition models.WorkflowTransition) ([]string, error)

func (f HookFunc) AfterTransition(ctx context.Context, shift models.Shift, transition models.WorkflowTransition) ([]string, error) {
	return f(ctx, shift, transition)
}

// Options tune a single transition.
type Options struct {
	BypassValidation bool
	Method           enums.TransitionMethod
	BulkOperationID  *uuid.UUID
	Reason           *string
}

// TransitionResult is the committed history row plus the updated shift.
type TransitionResult struct {
	Transition models.WorkflowTransition `json:"transition"`
	Shift      models.Shift              `json:"shift"`
	Validation *ValidationResult         `json:"validation,omitempty"`
	Warnings   []string                  `json:"warnings"`
}

// ExecutorParams wires an Executor.
type ExecutorParams struct {
	Validator *Validator
	Repo      Repository
	Tx        txRunner
	Outbox    outbox.Emitter
	Metrics   transitionObserver
	Logger    *logger.Logger
	Hooks     []Hook
	Now       func() time.Time
}

// Executor persists validated transitions.
type Executor struct {
	validator *Validator
	repo      Repository
	tx        txRunner
	outbox    outbox.Emitter
	metrics   transitionObserver
	logg      *logger.Logger
	hooks     []Hook
	now       func() time.Time
}

// NewExecutor builds a transition executor.
func NewExecutor(params ExecutorParams) (*Executor, error) {
	if params.Validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("workflow repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		validator: params.Validator,
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
		hooks:     append([]Hook(nil), params.Hooks...),
		now:       now,
	}, nil
}

// AddHook registers a post-commit hook.
func (e *Executor) AddHook(h Hook) {
	if h != nil {
		e.hooks = append(e.hooks, h)
	}
}

// ExecuteTransition moves shiftID to newStatus on behalf of changedBy.
//
// The shift read, the compare-and-swap status update, the history insert and
// the outbox event share one transaction. A concurrent writer that moved the
// shift first causes CONCURRENT_MODIFICATION and nothing is written.
func (e *Executor) ExecuteTransition(ctx context.Context, shiftID uuid.UUID, newStatus enums.ShiftStatus, changedBy string, opts Options) (*TransitionResult, error) {
	method := opts.Method
	if method == "" {
		method = enums.TransitionMethodManual
	}

	result, err := e.execute(ctx, shiftID, newStatus, changedBy, method, opts)
	if e.metrics != nil {
		e.metrics.ObserveTransition(string(newStatus), string(method), err)
	}
	if err != nil {
		return nil, err
	}

	if e.logg != nil {
		logCtx := e.logg.WithShiftID(ctx, shiftID.String())
		logCtx = e.logg.WithFields(logCtx, map[string]any{
			"from":   result.Transition.PreviousStatus,
			"to":     result.Transition.NewStatus,
			"method": method,
		})
		e.logg.Info(logCtx, "shift transition committed")
	}

	for _, hook := range e.hooks {
		warnings, hookErr := hook.AfterTransition(ctx, result.Shift, result.Transition)
		result.Warnings = append(result.Warnings, warnings...)
		if hookErr != nil {
			result.Warnings = append(result.Warnings, hookErr.Error())
			if e.logg != nil {
				e.logg.Warn(e.logg.WithShiftID(ctx, shiftID.String()), "post-transition hook failed: "+hookErr.Error())
			}
		}
	}
	return result, nil
}

func (e *Executor) execute(ctx context.Context, shiftID uuid.UUID, newStatus enums.ShiftStatus, changedBy string, method enums.TransitionMethod, opts Options) (*TransitionResult, error) {
	if shiftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "shift id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown status %q", newStatus))
	}
	changedBy = strings.TrimSpace(changedBy)
	if changedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "changed by required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("unknown transition method %q", method))
	}

	result := &TransitionResult{Warnings: []string{}}
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)

		shift, err := repo.FindShift(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeTransition, err, "load shift")
		}
		from := shift.Status

		if opts.BypassValidation {
			// Bypass skips business rules, not the graph's hard edges.
			if from == newStatus || e.validator.cfg.IsTerminal(from) {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move shift from %s to %s", from, newStatus))
			}
		} else {
			verdict, err := e.validator.evaluate(ctx, repo, shift, shift.ID, from, newStatus)
			if err != nil {
				return err
			}
			if !verdict.IsValid {
				return verdict.Err(from, newStatus)
			}
			result.Validation = &verdict
		}

		at := e.now().UTC()
		swapped, err := repo.CompareAndSwapStatus(ctx, shift, newStatus, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransition, err, "update shift status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "shift was modified concurrently").
				WithDetails(map[string]any{"expectedStatus": from, "expectedVersion": shift.Version})
		}

		transition := models.WorkflowTransition{
			ID:               uuid.New(),
			ShiftID:          shift.ID,
			PreviousStatus:   from,
			NewStatus:        newStatus,
			ChangedBy:        changedBy,
			ChangedAt:        at,
			TransitionReason: opts.Reason,
			TransitionMethod: method,
			BulkOperationID:  opts.BulkOperationID,
		}
		if err := repo.InsertTransition(ctx, &transition); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransition, err, "insert workflow history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventShiftStatusChanged,
			AggregateType: enums.AggregateShift,
			AggregateID:   shift.ID,
			Actor:         &outbox.ActorRef{ActorID: changedBy, Method: string(method)},
			OccurredAt:    at,
			Data: payloads.ShiftStatusChangedEvent{
				ShiftID:          shift.ID,
				TransitionID:     transition.ID,
				PreviousStatus:   from,
				NewStatus:        newStatus,
				ChangedBy:        changedBy,
				ChangedAt:        at,
				TransitionMethod: method,
				BulkOperationID:  opts.BulkOperationID,
				Reason:           opts.Reason,
			},
		}
		if err := e.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransition, err, "emit status changed event")
		}

		shift.Status = newStatus
		shift.Version++
		shift.UpdatedAt = at
		if newStatus == enums.ShiftStatusArchived {
			shift.ArchivedAt = &at
		}
		result.Shift = *shift
		result.Transition = transition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
