package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// Scheduler runs registered jobs on their cron schedules.
// ⭐ SSOT: 주기 작업 등록은 전부 여기를 통해서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	running map[string]bool
}

// New creates a scheduler. Jobs run in UTC so schedules line up with
// EDGAR filing and US market times regardless of host timezone.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  log.WithField("module", "scheduler"),
		jobs:    make(map[string]cron.EntryID),
		running: make(map[string]bool),
	}
}

// Register adds a job. Overlapping runs of the same job are skipped, not
// queued: a refresh that outlives its interval must not pile up.
func (s *Scheduler) Register(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}

	s.jobs[job.Name()] = id
	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"schedule": job.Schedule(),
	}).Info("Registered job")
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	s.mu.Lock()
	if s.running[job.Name()] {
		s.mu.Unlock()
		s.logger.WithField("job", job.Name()).Warn("Previous run still in progress, skipping")
		return
	}
	s.running[job.Name()] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[job.Name()] = false
		s.mu.Unlock()
	}()

	start := time.Now()
	s.logger.WithField("job", job.Name()).Info("Job started")

	if err := job.Run(ctx); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"job":      job.Name(),
			"duration": time.Since(start).String(),
		}).Error("Job failed")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"duration": time.Since(start).String(),
	}).Info("Job finished")
}

// Start begins executing schedules
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
}

// Stop stops scheduling and waits for in-flight jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// JobNames returns the registered job names
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
