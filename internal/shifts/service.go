package shifts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type historyReader interface {
	ListTransitions(ctx context.Context, shiftID uuid.UUID, params pagination.Params) ([]models.WorkflowTransition, string, error)
}

type transitionValidator interface {
	Validate(ctx context.Context, from, to enums.ShiftStatus, shiftID uuid.UUID) (workflow.ValidationResult, error)
	Config() workflow.Config
}

// TransitionOption is one reachable destination with its dry-run verdict.
type TransitionOption struct {
	Status     enums.ShiftStatus         `json:"status"`
	Title      string                    `json:"title"`
	Validation workflow.ValidationResult `json:"validation"`
}

// Service exposes shift intake and read operations plus the field updates
// bulk actions need.
type Service interface {
	Create(ctx context.Context, input CreateShiftInput) (*ShiftDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ShiftDTO, error)
	History(ctx context.Context, id uuid.UUID, params pagination.Params) (*pagination.Page[TransitionDTO], error)
	AllowedTransitions(ctx context.Context, id uuid.UUID) ([]TransitionOption, error)
	UpdatePriority(ctx context.Context, id uuid.UUID, priority int) (*ShiftDTO, error)
	Clone(ctx context.Context, id uuid.UUID, offset time.Duration, actor string) (*ShiftDTO, error)
}

type service struct {
	repo      Repository
	history   historyReader
	validator transitionValidator
	tx        txRunner
	outbox    outbox.Emitter
	now       func() time.Time
}

// NewService wires shift dependencies.
func NewService(repo Repository, history historyReader, validator transitionValidator, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shift repository required")
	}
	if history == nil {
		return nil, fmt.Errorf("history reader required")
	}
	if validator == nil {
		return nil, fmt.Errorf("transition validator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:      repo,
		history:   history,
		validator: validator,
		tx:        tx,
		outbox:    emitter,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateShiftInput) (*ShiftDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "title is required")
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "start and end time are required")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "end time must be after start time")
	}
	requiredGuards := input.RequiredGuards
	if requiredGuards <= 0 {
		requiredGuards = 1
	}

	shift := &models.Shift{
		ID:                     uuid.New(),
		Title:                  title,
		StartTime:              input.StartTime.UTC(),
		EndTime:                input.EndTime.UTC(),
		Status:                 enums.ShiftStatusUnassigned,
		Priority:               input.Priority,
		RequiredCertifications: normalizeCertifications(input.RequiredCertifications),
		RequiredGuards:         requiredGuards,
		ClientInfo:             input.ClientInfo,
		LocationData:           input.LocationData,
		ClientID:               input.ClientID,
		SiteID:                 input.SiteID,
		ManagerID:              input.ManagerID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, shift); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shift")
		}
		return s.emitCreated(ctx, tx, shift, input.CreatedBy, nil)
	})
	if err != nil {
		return nil, err
	}
	return FromModel(shift), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ShiftDTO, error) {
	shift, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(shift), nil
}

func (s *service) History(ctx context.Context, id uuid.UUID, params pagination.Params) (*pagination.Page[TransitionDTO], error) {
	if _, err := s.load(ctx, s.repo, id); err != nil {
		return nil, err
	}
	rows, next, err := s.history.ListTransitions(ctx, id, params)
	switch {
	case errors.Is(err, pagination.ErrInvalidCursor):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid cursor")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list workflow history")
	}
	items := make([]TransitionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, TransitionFromModel(row))
	}
	return &pagination.Page[TransitionDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) AllowedTransitions(ctx context.Context, id uuid.UUID) ([]TransitionOption, error) {
	shift, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	cfg := s.validator.Config()
	destinations := cfg.AllowedFrom(shift.Status)
	out := make([]TransitionOption, 0, len(destinations))
	for _, to := range destinations {
		verdict, err := s.validator.Validate(ctx, shift.Status, to, shift.ID)
		if err != nil {
			return nil, err
		}
		col, _ := cfg.Column(to)
		out = append(out, TransitionOption{Status: to, Title: col.Title, Validation: verdict})
	}
	return out, nil
}

func (s *service) UpdatePriority(ctx context.Context, id uuid.UUID, priority int) (*ShiftDTO, error) {
	if priority < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "priority must not be negative")
	}
	var updated *models.Shift
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if shift.Status == enums.ShiftStatusArchived {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "archived shifts cannot be changed")
		}
		at := s.now().UTC()
		if err := repo.UpdatePriority(ctx, id, priority, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shift priority")
		}
		shift.Priority = priority
		shift.Version++
		shift.UpdatedAt = at
		updated = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// Clone copies a shift as a fresh unassigned shift moved by offset.
func (s *service) Clone(ctx context.Context, id uuid.UUID, offset time.Duration, actor string) (*ShiftDTO, error) {
	if offset <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "clone offset must be positive")
	}
	var clone *models.Shift
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		clone = &models.Shift{
			ID:                     uuid.New(),
			Title:                  source.Title,
			StartTime:              source.StartTime.Add(offset).UTC(),
			EndTime:                source.EndTime.Add(offset).UTC(),
			Status:                 enums.ShiftStatusUnassigned,
			Priority:               source.Priority,
			RequiredCertifications: append([]string(nil), source.RequiredCertifications...),
			RequiredGuards:         source.RequiredGuards,
			ClientInfo:             source.ClientInfo,
			LocationData:           source.LocationData,
			ClientID:               source.ClientID,
			SiteID:                 source.SiteID,
			ManagerID:              source.ManagerID,
		}
		if err := repo.Create(ctx, clone); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cloned shift")
		}
		return s.emitCreated(ctx, tx, clone, actor, &source.ID)
	})
	if err != nil {
		return nil, err
	}
	return FromModel(clone), nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Shift, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "shift id required")
	}
	shift, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeShiftNotFound, "shift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shift")
	}
	return shift, nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, shift *models.Shift, actor string, cloneOf *uuid.UUID) error {
	var ref *outbox.ActorRef
	if actor != "" {
		ref = &outbox.ActorRef{ActorID: actor}
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventShiftCreated,
		AggregateType: enums.AggregateShift,
		AggregateID:   shift.ID,
		Actor:         ref,
		Data: payloads.ShiftCreatedEvent{
			ShiftID:   shift.ID,
			Title:     shift.Title,
			Status:    shift.Status,
			StartTime: shift.StartTime,
			EndTime:   shift.EndTime,
			ManagerID: shift.ManagerID,
			CloneOf:   cloneOf,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit shift created event")
	}
	return nil
}

func normalizeCertifications(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
