package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

// ShiftReader is the read surface the validator needs.
type ShiftReader interface {
	FindShift(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	CountActiveAssignments(ctx context.Context, shiftID uuid.UUID) (int64, error)
}

// BusinessRule is the outcome of one check evaluated for a transition.
type BusinessRule struct {
	Code    pkgerrors.Code `json:"code"`
	Passed  bool           `json:"passed"`
	Message string         `json:"message"`
}

// ValidationResult is the verdict for a requested transition.
type ValidationResult struct {
	IsValid          bool           `json:"isValid"`
	RequiresApproval bool           `json:"requiresApproval"`
	BusinessRules    []BusinessRule `json:"businessRules"`
}

// FirstFailure returns the first rule that did not pass.
func (r ValidationResult) FirstFailure() (BusinessRule, bool) {
	for _, rule := range r.BusinessRules {
		if !rule.Passed {
			return rule, true
		}
	}
	return BusinessRule{}, false
}

// Err converts a failed result into a typed error carrying the rule code.
func (r ValidationResult) Err(from, to enums.ShiftStatus) error {
	if r.IsValid {
		return nil
	}
	rule, ok := r.FirstFailure()
	if !ok {
		rule = BusinessRule{Code: pkgerrors.CodeInvalidTransition, Message: "transition not allowed"}
	}
	return pkgerrors.New(rule.Code, rule.Message).WithDetails(map[string]any{
		"from":          from,
		"to":            to,
		"businessRules": r.BusinessRules,
	})
}

type rule func(ctx context.Context, reader ShiftReader, shift *models.Shift, now time.Time) (BusinessRule, error)

// Validator checks transitions against the column table and the business
// rules keyed by destination status. It never writes.
type Validator struct {
	cfg    Config
	shifts ShiftReader
	rules  map[enums.ShiftStatus]rule
	now    func() time.Time
}

// NewValidator builds a validator over cfg reading shifts through shifts.
func NewValidator(cfg Config, shifts ShiftReader) (*Validator, error) {
	if len(cfg.columns) == 0 {
		return nil, fmt.Errorf("workflow config required")
	}
	if shifts == nil {
		return nil, fmt.Errorf("shift reader required")
	}
	return &Validator{
		cfg:    cfg,
		shifts: shifts,
		rules: map[enums.ShiftStatus]rule{
			enums.ShiftStatusAssigned:   requireAssignedGuard(pkgerrors.CodeGuardAssignmentRequired, "shift must have an assigned guard"),
			enums.ShiftStatusConfirmed:  requireAssignmentRecord,
			enums.ShiftStatusInProgress: requireStarted,
			enums.ShiftStatusCompleted:  requireAssignedGuard(pkgerrors.CodeCompletionCriteriaNotMet, "shift needs an assigned guard to be completed"),
		},
		now: time.Now,
	}, nil
}

// WithClock overrides the time source used by SHIFT_NOT_STARTED.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	if now != nil {
		v.now = now
	}
	return v
}

// Config returns the column table the validator was built with.
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate checks from -> to for shiftID.
func (v *Validator) Validate(ctx context.Context, from, to enums.ShiftStatus, shiftID uuid.UUID) (ValidationResult, error) {
	if !from.IsValid() {
		return ValidationResult{}, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown status %q", from))
	}
	if !to.IsValid() {
		return ValidationResult{}, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown status %q", to))
	}
	return v.evaluate(ctx, v.shifts, nil, shiftID, from, to)
}

// evaluate runs the checks. When shift is nil it is loaded through reader only
// if a business rule needs it.
func (v *Validator) evaluate(ctx context.Context, reader ShiftReader, shift *models.Shift, shiftID uuid.UUID, from, to enums.ShiftStatus) (ValidationResult, error) {
	result := ValidationResult{
		RequiresApproval: to == enums.ShiftStatusArchived,
		BusinessRules:    []BusinessRule{},
	}

	if !v.cfg.Allowed(from, to) {
		result.BusinessRules = append(result.BusinessRules, BusinessRule{
			Code:    pkgerrors.CodeInvalidTransition,
			Passed:  false,
			Message: fmt.Sprintf("cannot move shift from %s to %s", from, to),
		})
		return result, nil
	}

	check, hasRule := v.rules[to]
	if !v.cfg.RequiresValidation(from) || !hasRule {
		result.IsValid = true
		return result, nil
	}

	if shift == nil {
		loaded, err := reader.FindShift(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ValidationResult{}, pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
			}
			return ValidationResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "load shift for validation")
		}
		shift = loaded
	}

	outcome, err := check(ctx, reader, shift, v.now())
	if err != nil {
		return ValidationResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "evaluate business rule")
	}
	result.BusinessRules = append(result.BusinessRules, outcome)
	result.IsValid = outcome.Passed
	return result, nil
}

func requireAssignedGuard(code pkgerrors.Code, message string) rule {
	return func(_ context.Context, _ ShiftReader, shift *models.Shift, _ time.Time) (BusinessRule, error) {
		passed := shift.AssignedGuardID != nil && *shift.AssignedGuardID != uuid.Nil
		return BusinessRule{Code: code, Passed: passed, Message: message}, nil
	}
}

func requireAssignmentRecord(ctx context.Context, reader ShiftReader, shift *models.Shift, _ time.Time) (BusinessRule, error) {
	count, err := reader.CountActiveAssignments(ctx, shift.ID)
	if err != nil {
		return BusinessRule{}, err
	}
	return BusinessRule{
		Code:    pkgerrors.CodeGuardConfirmationRequired,
		Passed:  count > 0,
		Message: "shift needs an assignment record before confirmation",
	}, nil
}

func requireStarted(_ context.Context, _ ShiftReader, shift *models.Shift, now time.Time) (BusinessRule, error) {
	return BusinessRule{
		Code:    pkgerrors.CodeShiftNotStarted,
		Passed:  !now.Before(shift.StartTime),
		Message: fmt.Sprintf("shift starts at %s", shift.StartTime.UTC().Format(time.RFC3339)),
	}, nil
}
