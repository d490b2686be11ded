package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Job is a scheduled task run by the cron worker. Names must be unique
// within a registry since the schedule is tracked per name.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Periodic is implemented by jobs that should run less often than the
// service tick. Jobs without it run on every tick.
type Periodic interface {
	Every() time.Duration
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Registry holds jobs in registration order. Nil jobs are dropped.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) {
	if job != nil {
		r.jobs = append(r.jobs, job)
	}
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) validate() error {
	seen := make(map[string]struct{}, len(r.jobs))
	for i, job := range r.jobs {
		name := strings.TrimSpace(job.Name())
		if name == "" {
			return fmt.Errorf("cron job %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("cron job %q registered twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
