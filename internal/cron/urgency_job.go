package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

type urgencyMonitor interface {
	MonitorShiftsForAlerts(ctx context.Context) (*alerts.MonitorResult, error)
}

// UrgencyMonitorJobParams configures the urgency scan.
type UrgencyMonitorJobParams struct {
	Logger  *logger.Logger
	Monitor urgencyMonitor
	// Every throttles the scan below the service tick. Zero runs every tick.
	Every time.Duration
}

// NewUrgencyMonitorJob schedules MonitorShiftsForAlerts.
func NewUrgencyMonitorJob(params UrgencyMonitorJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Monitor == nil {
		return nil, fmt.Errorf("urgency monitor required")
	}
	return &urgencyMonitorJob{logg: params.Logger, monitor: params.Monitor, every: params.Every}, nil
}

type urgencyMonitorJob struct {
	logg    *logger.Logger
	monitor urgencyMonitor
	every   time.Duration
}

func (j *urgencyMonitorJob) Name() string { return "urgency-monitor" }

func (j *urgencyMonitorJob) Every() time.Duration { return j.every }

// Run fails only when the scan itself fails. Per-shift problems are logged
// as warnings by the monitor and summarised here.
func (j *urgencyMonitorJob) Run(ctx context.Context) error {
	result, err := j.monitor.MonitorShiftsForAlerts(ctx)
	if err != nil {
		return fmt.Errorf("urgency monitor: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"shifts_scanned": result.Scanned,
		"alerts_raised":  len(result.Alerts),
		"escalated":      len(result.Escalated),
		"warnings":       len(result.Warnings),
	})
	if len(result.Warnings) > 0 {
		j.logg.Warn(logCtx, "urgency monitor finished with warnings")
		return nil
	}
	j.logg.Info(logCtx, "urgency monitor finished")
	return nil
}
