package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// SchedulerConfig holds the in-process trigger settings
type SchedulerConfig struct {
	Spec     string // standard 5-field cron expression
	Timezone string
	Timeout  time.Duration
}

// Reconciler is the job the scheduler triggers
type Reconciler interface {
	Run(ctx context.Context, trigger models.Trigger) (*models.ReconcileReport, error)
}

// ReconcileScheduler triggers reconciliation on a cron schedule. Overlapping
// ticks are skipped while a run is still in progress.
type ReconcileScheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	timeout    time.Duration
	logger     *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewReconcileScheduler validates the schedule and builds the scheduler
func NewReconcileScheduler(cfg SchedulerConfig, reconciler Reconciler) (*ReconcileScheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	logger := logging.WithPrefix("Scheduler")
	s := &ReconcileScheduler{
		reconciler: reconciler,
		timeout:    timeout,
		logger:     logger,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	if _, err := s.cron.AddFunc(cfg.Spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Start begins scheduling
func (s *ReconcileScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("Already running")
		return
	}
	s.running = true
	s.cron.Start()

	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.logger.Infof("Started; next run at %s", entries[0].Next.Format(time.RFC3339))
	}
}

// Stop halts scheduling and waits for an in-flight run to finish or ctx to expire
func (s *ReconcileScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Stopped")
	case <-ctx.Done():
		s.logger.Warn("Stop timed out waiting for the running job")
	}
}

func (s *ReconcileScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.reconciler.Run(ctx, models.TriggerCron)
	if err != nil {
		s.logger.Errorf("Scheduled reconciliation failed: %v", err)
		return
	}
	s.logger.Infof("Scheduled reconciliation: %s", report.Summary())
}

// cronLogger adapts the package logger to cron.Logger
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.With(append(keysAndValues, "error", err)...).Error(msg)
}
