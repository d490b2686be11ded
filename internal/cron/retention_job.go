package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

const (
	defaultResolvedAlertTTL      = 30 * 24 * time.Hour
	defaultReadNotificationTTL   = 30 * 24 * time.Hour
	workflowRetentionJobInterval = 24 * time.Hour
)

type resolvedAlertPurger interface {
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type readNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WorkflowRetentionJobParams configures the daily purge of closed alerts
// and read inbox rows. Workflow history is never purged.
type WorkflowRetentionJobParams struct {
	Logger           *logger.Logger
	Alerts           resolvedAlertPurger
	Notifications    readNotificationPurger
	ResolvedAlertTTL time.Duration
	NotificationTTL  time.Duration
}

// NewWorkflowRetentionJob builds the retention job.
func NewWorkflowRetentionJob(params WorkflowRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	alertTTL := params.ResolvedAlertTTL
	if alertTTL <= 0 {
		alertTTL = defaultResolvedAlertTTL
	}
	notificationTTL := params.NotificationTTL
	if notificationTTL <= 0 {
		notificationTTL = defaultReadNotificationTTL
	}
	return &workflowRetentionJob{
		logg:            params.Logger,
		alerts:          params.Alerts,
		notifications:   params.Notifications,
		alertTTL:        alertTTL,
		notificationTTL: notificationTTL,
		now:             time.Now,
	}, nil
}

type workflowRetentionJob struct {
	logg            *logger.Logger
	alerts          resolvedAlertPurger
	notifications   readNotificationPurger
	alertTTL        time.Duration
	notificationTTL time.Duration
	now             func() time.Time
}

func (j *workflowRetentionJob) Name() string { return "workflow-retention" }

func (j *workflowRetentionJob) Every() time.Duration { return workflowRetentionJobInterval }

// Run purges each table independently; one failing purge does not skip the
// other.
func (j *workflowRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error

	alertCutoff := now.Add(-j.alertTTL)
	alertsDeleted, err := j.alerts.DeleteResolvedBefore(ctx, alertCutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("purge resolved alerts: %w", err))
	}

	notificationCutoff := now.Add(-j.notificationTTL)
	notificationsDeleted, err := j.notifications.DeleteReadBefore(ctx, notificationCutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("purge read notifications: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"alert_cutoff":          alertCutoff,
		"alerts_deleted":        alertsDeleted,
		"notification_cutoff":   notificationCutoff,
		"notifications_deleted": notificationsDeleted,
	})
	if errs != nil {
		return errs
	}
	j.logg.Info(logCtx, "workflow retention complete")
	return nil
}
