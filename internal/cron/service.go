package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/guardforce-backend/pkg/logger"
	"github.com/angelmondragon/guardforce-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	Now      func() time.Time
}

// Service wakes every interval and, while holding the distributed lock, runs
// each registered job whose cadence has elapsed.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	if err := registry.validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		logg:     params.Logger,
		jobs:     registry.Jobs(),
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      params.Now,
		lastRun:  make(map[string]time.Time, len(registry.Jobs())),
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Run executes one cycle immediately, then one per interval until ctx ends.
// A failed cycle is logged and the loop keeps going.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !held {
		s.logg.Debug(ctx, "cron lock held elsewhere, skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "cron lock release failed", relErr)
		}
	}()

	tick := s.now()
	for _, job := range s.jobs {
		if !s.due(job, tick) {
			continue
		}
		s.runJob(ctx, job)
		s.markRun(job.Name(), tick)

		// Long jobs can outlive the lock TTL; extend it before the next one.
		if err := s.lock.Refresh(ctx); err != nil {
			return fmt.Errorf("lock refresh after %s: %w", job.Name(), err)
		}
	}
	return nil
}

// due reports whether job should run at tick. Jobs without their own cadence,
// or with one no longer than the tick, run every cycle.
func (s *Service) due(job Job, tick time.Time) bool {
	periodic, ok := job.(Periodic)
	if !ok || periodic.Every() <= s.interval {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, seen := s.lastRun[job.Name()]
	return !seen || tick.Sub(last) >= periodic.Every()
}

func (s *Service) markRun(name string, tick time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun[name] = tick
}

func (s *Service) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Debug(ctx, "cron job started")

	started := time.Now()
	err := job.Run(ctx)
	took := time.Since(started)
	s.metrics.ObserveRun(job.Name(), took, err)

	ctx = s.logg.WithField(ctx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron job failed", err)
		return
	}
	s.logg.Info(ctx, "cron job completed")
}
