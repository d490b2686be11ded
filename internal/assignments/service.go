package assignments

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service books guards onto shifts. It does not move the Kanban status;
// callers follow up with a transition.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*AssignmentDTO, error)
	Confirm(ctx context.Context, shiftID, assignmentID uuid.UUID, actor string) (*AssignmentDTO, error)
	Cancel(ctx context.Context, shiftID, assignmentID uuid.UUID, actor string) (*AssignmentDTO, error)
	List(ctx context.Context, shiftID uuid.UUID) ([]AssignmentDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires assignment dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*AssignmentDTO, error) {
	if input.ShiftID == uuid.Nil || input.GuardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "shift id and guard id required")
	}
	assignedBy := strings.TrimSpace(input.AssignedBy)
	if assignedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "assigned by required")
	}

	var created *models.ShiftAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := loadShift(ctx, repo, input.ShiftID)
		if err != nil {
			return err
		}
		switch shift.Status {
		case enums.ShiftStatusCompleted, enums.ShiftStatusArchived, enums.ShiftStatusInProgress:
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot assign guards to a %s shift", shift.Status))
		}

		guard, err := repo.FindGuard(ctx, input.GuardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "guard not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guard")
		}
		if !guard.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "guard is inactive")
		}

		if _, err := repo.FindActive(ctx, shift.ID, guard.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "guard already assigned to shift")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing assignment")
		}

		existing, err := repo.ListByShift(ctx, shift.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
		}
		var active []models.ShiftAssignment
		for _, a := range existing {
			if a.Status.Active() {
				active = append(active, a)
			}
		}
		capacity := max(shift.RequiredGuards, 1)
		if !input.Replace && len(active) >= capacity {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("shift already has %d of %d guards; set replace to swap", len(active), capacity)).
				WithDetails(map[string]any{"activeAssignments": len(active), "requiredGuards": capacity})
		}
		if input.Replace {
			for _, a := range active {
				if err := repo.UpdateStatus(ctx, a.ID, enums.AssignmentStatusCancelled, nil); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel previous assignment")
				}
			}
		}

		created = &models.ShiftAssignment{
			ID:         uuid.New(),
			ShiftID:    shift.ID,
			GuardID:    guard.ID,
			Status:     enums.AssignmentStatusPending,
			AssignedBy: &assignedBy,
		}
		if err := repo.Create(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		if shift.AssignedGuardID == nil || input.Replace {
			if err := repo.SetShiftGuard(ctx, shift.ID, &guard.ID, s.now().UTC()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set assigned guard")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) Confirm(ctx context.Context, shiftID, assignmentID uuid.UUID, actor string) (*AssignmentDTO, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "actor required")
	}
	var out *models.ShiftAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := loadAssignment(ctx, repo, shiftID, assignmentID)
		if err != nil {
			return err
		}
		switch assignment.Status {
		case enums.AssignmentStatusConfirmed:
			out = assignment
			return nil
		case enums.AssignmentStatusPending:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot confirm a %s assignment", assignment.Status))
		}
		at := s.now().UTC()
		if err := repo.UpdateStatus(ctx, assignment.ID, enums.AssignmentStatusConfirmed, &at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm assignment")
		}
		assignment.Status = enums.AssignmentStatusConfirmed
		assignment.ConfirmedAt = &at
		out = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) Cancel(ctx context.Context, shiftID, assignmentID uuid.UUID, actor string) (*AssignmentDTO, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "actor required")
	}
	var out *models.ShiftAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := loadAssignment(ctx, repo, shiftID, assignmentID)
		if err != nil {
			return err
		}
		if !assignment.Status.Active() {
			out = assignment
			return nil
		}
		if err := repo.UpdateStatus(ctx, assignment.ID, enums.AssignmentStatusCancelled, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel assignment")
		}
		assignment.Status = enums.AssignmentStatusCancelled
		out = assignment

		shift, err := loadShift(ctx, repo, shiftID)
		if err != nil {
			return err
		}
		if shift.AssignedGuardID == nil || *shift.AssignedGuardID != assignment.GuardID {
			return nil
		}
		// Promote the oldest remaining active booking, if any.
		remaining, err := repo.ListByShift(ctx, shiftID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
		}
		var next *uuid.UUID
		for _, a := range remaining {
			if a.ID != assignment.ID && a.Status.Active() {
				guardID := a.GuardID
				next = &guardID
				break
			}
		}
		if err := repo.SetShiftGuard(ctx, shiftID, next, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assigned guard")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) List(ctx context.Context, shiftID uuid.UUID) ([]AssignmentDTO, error) {
	if _, err := loadShift(ctx, s.repo, shiftID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	out := make([]AssignmentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func loadShift(ctx context.Context, repo Repository, id uuid.UUID) (*models.Shift, error) {
	shift, err := repo.FindShift(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shift")
	}
	return shift, nil
}

func loadAssignment(ctx context.Context, repo Repository, shiftID, assignmentID uuid.UUID) (*models.ShiftAssignment, error) {
	assignment, err := repo.FindAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if assignment.ShiftID != shiftID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	return assignment, nil
}
