// Package cron runs portal maintenance jobs on a fixed cadence, one
// instance at a time.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

const defaultInterval = 6 * time.Hour

// jobTracker times a job run and records its outcome.
type jobTracker interface {
	Track(op string) func(error)
}

// ServiceParams configure the maintenance scheduler.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  jobTracker
	Interval time.Duration
}

// Service executes registered jobs every interval while holding Lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  jobTracker
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes one cycle immediately, then one per tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "maintenance.cycle_failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "maintenance.cycle_failed", err)
			}
		}
	}
}

// RunOnce runs every job a single time. Job failures are logged and counted
// but never stop the remaining jobs.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "maintenance.skipped_locked")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "maintenance.lock_release_failed", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	done := func(error) {}
	if s.metrics != nil {
		done = s.metrics.Track(job.Name())
	}
	start := time.Now()
	err := job.Run(jobCtx)
	done(err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "maintenance.job_failed", err)
		return
	}
	s.logg.Info(jobCtx, "maintenance.job_completed")
}
