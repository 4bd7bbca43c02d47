package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 10 * time.Minute
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds each job run; zero uses the default.
	JobTimeout time.Duration
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	timeout  time.Duration
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{byName: map[string]Job{}}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := params.JobTimeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		timeout:  timeout,
	}, nil
}

// ErrJobsFailed is returned by RunOnce when at least one job failed.
var ErrJobsFailed = errors.New("cron jobs failed")

// cycleReport lists the jobs that failed during one cycle. skipped is set
// when another instance held the lock.
type cycleReport struct {
	skipped bool
	ran     int
	failed  []string
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single locked cycle and reports job failures through
// ErrJobsFailed, so one-shot invocations exit non-zero.
func (s *Service) RunOnce(ctx context.Context) error {
	report, err := s.runCycle(ctx)
	if err != nil {
		return err
	}
	if len(report.failed) > 0 {
		return fmt.Errorf("%w: %s", ErrJobsFailed, strings.Join(report.failed, ", "))
	}
	return nil
}

func (s *Service) runCycle(ctx context.Context) (cycleReport, error) {
	var report cycleReport
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(s.withHolder(ctx), "another cron instance is running; skipping this cycle")
		report.skipped = true
		return report, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		report.ran++
		if err := s.runJob(ctx, job); err != nil {
			report.failed = append(report.failed, job.Name())
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs_ran":    report.ran,
		"jobs_failed": len(report.failed),
	}), "scheduled run complete")
	return report, nil
}

// withHolder tags ctx with the current lock owner when the lock can say.
func (s *Service) withHolder(ctx context.Context) context.Context {
	h, ok := s.lock.(interface {
		Holder(context.Context) (string, error)
	})
	if !ok {
		return ctx
	}
	holder, err := h.Holder(ctx)
	if err != nil || holder == "" {
		return ctx
	}
	return s.logg.WithField(ctx, "lock_holder", holder)
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")

	runCtx, cancel := context.WithTimeout(jobCtx, s.timeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		duration := time.Since(start)
		jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
		if s.metrics != nil {
			s.metrics.ObserveDuration(name, duration)
		}
		if err != nil {
			s.logg.Error(jobCtx, "job failed", err)
			if s.metrics != nil {
				s.metrics.IncFailure(name)
			}
			return
		}
		s.logg.Info(jobCtx, "job completed")
		if s.metrics != nil {
			s.metrics.IncSuccess(name)
		}
	}()
	return job.Run(runCtx)
}
