package alerts

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
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

// ListParams filters the alert listing.
type ListParams struct {
	ShiftID  *uuid.UUID
	Type     *enums.AlertType
	Statuses []enums.AlertStatus
	Limit    int
	Cursor   string
}

// Service exposes alert management to managers.
type Service interface {
	List(ctx context.Context, params ListParams) (*pagination.Page[AlertDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*AlertDTO, error)
	Acknowledge(ctx context.Context, id uuid.UUID, actor string) (*AlertDTO, error)
	Resolve(ctx context.Context, id uuid.UUID, actor string, note *string) (*AlertDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics resolveMetrics
	now     func() time.Time
}

// NewService wires alert management dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, metrics resolveMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, metrics: metrics, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[AlertDTO], error) {
	statuses := params.Statuses
	if len(statuses) == 0 {
		statuses = []enums.AlertStatus{enums.AlertStatusActive, enums.AlertStatusAcknowledged}
	}
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("invalid alert status %q", st))
		}
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("invalid alert type %q", *params.Type))
	}

	if params.Cursor != "" {
		if _, err := pagination.ParseCursor(params.Cursor); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid cursor")
		}
	}

	rows, next, err := s.repo.List(ctx, ListFilter{
		ShiftID:  params.ShiftID,
		Type:     params.Type,
		Statuses: statuses,
		Page:     pagination.Params{Limit: params.Limit, Cursor: params.Cursor},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	return &pagination.Page[AlertDTO]{Items: FromModels(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AlertDTO, error) {
	alert, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*alert)
	return &dto, nil
}

func (s *service) Acknowledge(ctx context.Context, id uuid.UUID, actor string) (*AlertDTO, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "actor required")
	}
	var out *models.UrgencyAlert
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		alert, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		switch alert.Status {
		case enums.AlertStatusAcknowledged:
			out = alert
			return nil
		case enums.AlertStatusResolved:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "alert already resolved")
		}
		at := s.now().UTC()
		if err := repo.Acknowledge(ctx, id, actor, at); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConcurrentModification, "alert changed while acknowledging")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acknowledge alert")
		}
		alert.Status = enums.AlertStatusAcknowledged
		alert.AcknowledgedBy = &actor
		alert.AcknowledgedAt = &at
		out = alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*out)
	return &dto, nil
}

func (s *service) Resolve(ctx context.Context, id uuid.UUID, actor string, note *string) (*AlertDTO, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "actor required")
	}
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		note = &trimmed
		if trimmed == "" {
			note = nil
		}
	}
	var out *models.UrgencyAlert
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		alert, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if alert.Status == enums.AlertStatusResolved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "alert already resolved")
		}
		at := s.now().UTC()
		ok, err := repo.Resolve(ctx, id, actor, note, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "alert changed while resolving")
		}
		alert.Status = enums.AlertStatusResolved
		alert.ResolvedBy = &actor
		alert.ResolvedAt = &at
		alert.ResolutionNote = note
		if err := s.outbox.Emit(ctx, tx, resolvedEvent(*alert, actor)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit alert resolved")
		}
		out = alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncAlertResolved(string(out.AlertType), "manual")
	}
	dto := FromModel(*out)
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.UrgencyAlert, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "alert id required")
	}
	alert, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeAlertNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	return alert, nil
}
