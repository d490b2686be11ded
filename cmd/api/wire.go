package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/guardforce-backend/internal/alerts"
	"github.com/angelmondragon/guardforce-backend/internal/assignments"
	"github.com/angelmondragon/guardforce-backend/internal/bulk"
	"github.com/angelmondragon/guardforce-backend/internal/kanban"
	"github.com/angelmondragon/guardforce-backend/internal/notifications"
	"github.com/angelmondragon/guardforce-backend/internal/shifts"
	"github.com/angelmondragon/guardforce-backend/internal/workflow"
	"github.com/angelmondragon/guardforce-backend/pkg/config"
	"github.com/angelmondragon/guardforce-backend/pkg/db"
	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/metrics"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
)

type services struct {
	kanban        *kanban.Service
	shifts        shifts.Service
	assignments   assignments.Service
	alerts        alerts.Service
	monitor       *alerts.Monitor
	notifications notifications.Service
}

func wire(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (*services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	workflowMetrics := metrics.NewWorkflowMetrics(reg)

	workflowCfg := workflow.DefaultConfig()
	workflowRepo := workflow.NewRepository(conn)
	validator, err := workflow.NewValidator(workflowCfg, workflowRepo)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	executor, err := workflow.NewExecutor(workflow.ExecutorParams{
		Validator: validator,
		Repo:      workflowRepo,
		Tx:        dbClient,
		Outbox:    emitter,
		Metrics:   workflowMetrics,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}

	shiftRepo := shifts.NewRepository(conn)
	shiftService, err := shifts.NewService(shiftRepo, workflowRepo, validator, dbClient, emitter)
	if err != nil {
		return nil, fmt.Errorf("shift service: %w", err)
	}

	assignmentService, err := assignments.NewService(assignments.NewRepository(conn), dbClient)
	if err != nil {
		return nil, fmt.Errorf("assignment service: %w", err)
	}

	dispatcher, err := notifications.NewDispatcher(dbClient, emitter)
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}
	inbox, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}

	alertRepo := alerts.NewRepository(conn)
	resolver, err := alerts.NewResolver(alertRepo, dbClient, emitter, workflowMetrics, logg)
	if err != nil {
		return nil, fmt.Errorf("alert resolver: %w", err)
	}
	alertService, err := alerts.NewService(alertRepo, dbClient, emitter, workflowMetrics)
	if err != nil {
		return nil, fmt.Errorf("alert service: %w", err)
	}
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

	runner, err := bulk.NewRunner(bulk.RunnerParams{
		Repo:        bulk.NewRepository(conn),
		Tx:          dbClient,
		Outbox:      emitter,
		Transitions: executor,
		Assigner:    assignmentService,
		Shifts:      shiftService,
		Finder:      shiftRepo,
		Notifier:    dispatcher,
		Metrics:     workflowMetrics,
		Logger:      logg,
		MaxShifts:   cfg.Workflow.MaxBulkShifts,
		CloneOffset: cfg.Workflow.CloneOffset,
	})
	if err != nil {
		return nil, fmt.Errorf("bulk runner: %w", err)
	}

	assembler, err := kanban.NewAssembler(kanban.AssemblerParams{
		Config:          workflowCfg,
		Shifts:          shiftRepo,
		Alerts:          alertRepo,
		BottleneckRatio: cfg.Workflow.BottleneckRatio,
		ShiftLimit:      cfg.Workflow.BoardShiftLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("board assembler: %w", err)
	}

	board, err := kanban.NewService(kanban.ServiceParams{
		Board:    assembler,
		Executor: executor,
		Bulk:     runner,
		Resolver: resolver,
	})
	if err != nil {
		return nil, fmt.Errorf("kanban service: %w", err)
	}

	return &services{
		kanban:        board,
		shifts:        shiftService,
		assignments:   assignmentService,
		alerts:        alertService,
		monitor:       monitor,
		notifications: inbox,
	}, nil
}
