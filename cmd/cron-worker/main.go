package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/internal/cron"
	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/pkg/bootstrap"
	"github.com/angelmondragon/guardforce-backend/pkg/config"
	"github.com/angelmondragon/guardforce-backend/pkg/db"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/metrics"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
)

func main() {
	proc, err := bootstrap.Start("cron-worker")
	if err != nil {
		proc.Exit("startup failed", err)
	}
	defer proc.Shutdown()

	cfg := proc.Config
	ctx := context.Background()
	dbClient, err := proc.Database(ctx)
	if err != nil {
		proc.Exit("database unavailable", err)
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		proc.Exit("redis unavailable", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		proc.Exit("cron lock", err)
	}

	jobs, err := buildJobs(cfg, proc.Logger, dbClient, metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		proc.Exit("cron jobs", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   proc.Logger,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		proc.Exit("cron service", err)
	}

	if err := proc.Run(map[string]any{"interval": cfg.Cron.Interval.String()}, service.Run); err != nil {
		proc.Exit("cron worker stopped unexpectedly", err)
	}
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, workflowMetrics *metrics.WorkflowMetrics) ([]cron.Job, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	dispatcher, err := notifications.NewDispatcher(dbClient, emitter)
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}

	alertRepo := alerts.NewRepository(conn)
	monitor, err := alerts.NewMonitor(alerts.MonitorParams{
		Repo:            alertRepo,
		Tx:              dbClient,
		Outbox:          emitter,
		Notifier:        dispatcher,
		Risk:            alerts.NewHistoryRiskScorer(alertRepo, cfg.Workflow.RiskWindow),
		Metrics:         workflowMetrics,
		Logger:          logg,
		Lookahead:       cfg.Workflow.UrgencyLookahead,
		NoShowThreshold: cfg.Workflow.NoShowThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("urgency monitor: %w", err)
	}

	urgencyJob, err := cron.NewUrgencyMonitorJob(cron.UrgencyMonitorJobParams{
		Logger:  logg,
		Monitor: monitor,
	})
	if err != nil {
		return nil, fmt.Errorf("urgency job: %w", err)
	}

	retentionJob, err := cron.NewWorkflowRetentionJob(cron.WorkflowRetentionJobParams{
		Logger:           logg,
		Alerts:           alertRepo,
		Notifications:    notifications.NewRepository(conn),
		ResolvedAlertTTL: cfg.Workflow.ResolvedAlertsTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow retention job: %w", err)
	}

	outboxJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		DB:           dbClient,
		Repository:   outboxRepo,
		DLQ:          outbox.NewDLQRepository(conn),
		Retention:    cfg.Outbox.Retention,
		DLQRetention: cfg.Outbox.DLQRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	return []cron.Job{urgencyJob, retentionJob, outboxJob}, nil
}

// lockName scopes the schedule lock per environment sharing one Redis.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
