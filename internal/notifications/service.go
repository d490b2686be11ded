package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

// Service is the manager inbox: list, count and mark read.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID string, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type ListParams struct {
	RecipientID string
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult is one inbox page. Unread counts the whole inbox, not the page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
	Unread int64             `json:"unread"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func recipient(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidRequest, "recipient id required")
	}
	return id, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	to, err := recipient(params.RecipientID)
	if err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, listNotificationsParams{
		RecipientID: to,
		Limit:       params.Limit,
		Cursor:      cursor,
		UnreadOnly:  params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return &ListResult{Items: items, Cursor: next.Encode(), Unread: unread}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID string, notificationID uuid.UUID) error {
	to, err := recipient(recipientID)
	if err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidRequest, "notification id required")
	}
	outcome, err := s.repo.MarkRead(ctx, to, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if outcome == markMissing {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	to, err := recipient(recipientID)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.MarkAllRead(ctx, to, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
