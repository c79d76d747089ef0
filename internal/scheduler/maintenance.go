// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// LoginLimiter forgets stale login attempts.
type LoginLimiter interface {
	Cleanup() int
}

// MaintenanceScheduler periodically purges expired tokens and stale login
// attempts. Token cleanup is handed to the task queue when one is
// available and run inline otherwise.
type MaintenanceScheduler struct {
	schedule string
	queue    tasks.Enqueuer
	cleaner  tasks.ExpiredTokenCleaner
	limiter  LoginLimiter
	log      logrus.FieldLogger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewMaintenanceScheduler creates a scheduler. queue and limiter may be nil.
func NewMaintenanceScheduler(schedule string, queue tasks.Enqueuer, cleaner tasks.ExpiredTokenCleaner, limiter LoginLimiter, log logrus.FieldLogger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		schedule: schedule,
		queue:    queue,
		cleaner:  cleaner,
		limiter:  limiter,
		log:      log.WithField("component", "scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the maintenance job. An empty schedule disables it.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.log.Info("Maintenance scheduler: disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	s.log.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"next_run": s.cron.Entry(entryID).Next,
	}).Info("Maintenance scheduler: started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	<-done.Done()
	s.isRunning = false

	s.log.Info("Maintenance scheduler: stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when stopped.
func (s *MaintenanceScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow performs one maintenance pass synchronously.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) {
	s.run(ctx)
}

func (s *MaintenanceScheduler) run(ctx context.Context) {
	if s.limiter != nil {
		if n := s.limiter.Cleanup(); n > 0 {
			s.log.WithField("entries", n).Debug("Forgot stale login attempts")
		}
	}

	if s.queue != nil {
		ids, err := s.queue.Add(tasks.CleanupTokensTask{}).Ctx(ctx).Save()
		if err != nil {
			s.log.WithError(err).Error("Failed to enqueue token cleanup")
			return
		}
		s.log.WithField("task_ids", ids).Debug("Token cleanup queued")
		return
	}

	if s.cleaner == nil {
		return
	}
	resets, revoked, err := s.cleaner.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Error("Token cleanup failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"reset_tokens": resets,
		"revocations":  revoked,
	}).Info("Cleaned up expired tokens")
}
