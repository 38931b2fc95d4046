// Package scheduler runs the library's periodic maintenance on cron schedules.
// Jobs only enqueue tasks; the work itself happens on the task queue workers.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Enqueuer hands maintenance work to the task queue.
type Enqueuer interface {
	EnqueueOverdueSweep(ctx context.Context, trigger string) (string, error)
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) (string, error)
}

// Config holds the maintenance schedules.
type Config struct {
	OverdueSweepSchedule string
	AuditCleanupSchedule string
	AuditRetentionDays   int
}

// MaintenanceScheduler enqueues overdue sweeps and audit cleanups on schedule.
type MaintenanceScheduler struct {
	enqueuer Enqueuer
	config   Config

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(enqueuer Enqueuer, cfg Config) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		enqueuer: enqueuer,
		config:   cfg,
		cron:     cron.New(cron.WithParser(parser)),
		entries:  make(map[string]cron.EntryID),
	}
}

// Start validates the schedules and begins running jobs. An empty schedule
// disables that job. The scheduler stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"overdue_sweep", s.config.OverdueSweepSchedule, s.runOverdueSweep},
		{"audit_cleanup", s.config.AuditCleanupSchedule, s.runAuditCleanup},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			log.Printf("[SCHEDULER] %s: disabled", job.name)
			continue
		}
		if err := ValidateCronSchedule(job.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.schedule, job.name, err)
		}
		id, err := s.cron.AddFunc(job.schedule, job.run)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.entries[job.name] = id

		next, _ := NextRunTime(job.schedule, time.Now())
		log.Printf("[SCHEDULER] %s: scheduled '%s' (%s). Next run: %v",
			job.name, job.schedule, DescribeSchedule(job.schedule), next)
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	done := s.cron.Stop()
	<-done.Done()

	s.isRunning = false
	log.Printf("[SCHEDULER] stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when it is not scheduled.
func (s *MaintenanceScheduler) NextRun(job string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[job]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

// RunOverdueSweepNow enqueues a sweep outside the schedule.
func (s *MaintenanceScheduler) RunOverdueSweepNow(ctx context.Context, trigger string) (string, error) {
	return s.enqueuer.EnqueueOverdueSweep(ctx, trigger)
}

func (s *MaintenanceScheduler) runOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.enqueuer.EnqueueOverdueSweep(ctx, "cron"); err != nil {
		log.Printf("[SCHEDULER] overdue_sweep: failed to enqueue: %v", err)
	}
}

func (s *MaintenanceScheduler) runAuditCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.enqueuer.EnqueueAuditCleanup(ctx, s.config.AuditRetentionDays); err != nil {
		log.Printf("[SCHEDULER] audit_cleanup: failed to enqueue: %v", err)
	}
}
