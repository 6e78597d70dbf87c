package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// At pins cycles to an offset from local midnight (23h runs at 23:00).
	// Zero runs a cycle on start and then every Interval.
	At    time.Duration
	Clock func() time.Time
}

// Service runs every registered job once per interval while holding the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	at       time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	if params.At < 0 || params.At >= 24*time.Hour {
		return nil, fmt.Errorf("schedule offset %s outside one day", params.At)
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		at:       params.At,
		now:      clock,
	}, nil
}

// Run loops until ctx is canceled. Cycle errors are logged, never returned.
func (s *Service) Run(ctx context.Context) error {
	if s.at == 0 {
		s.cycle(ctx)
	}
	for {
		next := s.nextRun(s.now())
		s.logg.Info(s.logg.WithField(ctx, "next_run", next.Format(time.RFC3339)), "cron.scheduled")

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-timer.C:
			s.cycle(ctx)
		}
	}
}

// nextRun is the first scheduled instant strictly after now.
func (s *Service) nextRun(now time.Time) time.Time {
	if s.at == 0 {
		return now.Add(s.interval)
	}
	y, m, d := now.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(s.at)
	for !next.After(now) {
		next = next.Add(s.interval)
	}
	return next
}

func (s *Service) cycle(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

// RunOnce runs all jobs if this replica wins the lock. Job failures are logged
// and counted; only lock errors are returned.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.lock_held_elsewhere")
		s.metrics.IncLockSkipped()
		return nil
	}

	stopKeepalive := s.keepalive(ctx)
	defer func() {
		stopKeepalive()
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

// keepalive extends a refreshable lock at a third of its TTL until stopped.
// Losing the lock is logged; running jobs are left to finish.
func (s *Service) keepalive(ctx context.Context) (stop func()) {
	r, ok := s.lock.(refresher)
	if !ok || r.TTL() <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(r.TTL() / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Refresh(ctx); err != nil {
					s.logg.Error(ctx, "cron.lock_refresh_failed", err)
					if errors.Is(err, ErrLockLost) {
						return
					}
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	s.logg.Info(jobCtx, "cron.job_started")

	start := s.now()
	err := job.Run(jobCtx)
	end := s.now()
	s.metrics.ObserveRun(job.Name(), end.Sub(start), err, end)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", end.Sub(start).Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return
	}
	s.logg.Info(jobCtx, "cron.job_completed")
}
