// Package scheduler runs GlassDesk's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glassdesk/glassdesk/internal/logging"
)

// JobHandler is the function executed for a job
type JobHandler func(ctx context.Context) error

// ScheduleType says when a job runs
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval" // every Interval
	ScheduleDaily    ScheduleType = "daily"    // at "HH:MM" UTC each day
)

// Schedule defines when a job runs
type Schedule struct {
	Type     ScheduleType  `json:"type"`
	Interval time.Duration `json:"interval,omitempty"`
	At       string        `json:"at,omitempty"` // "HH:MM" for daily jobs
}

// Job is one registered background job
type Job struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Schedule Schedule      `json:"schedule"`
	Handler  JobHandler    `json:"-"`
	Timeout  time.Duration `json:"timeout"`

	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	RunCount   int64      `json:"run_count"`
	ErrorCount int64      `json:"error_count"`
	LastError  string     `json:"last_error,omitempty"`
}

// Scheduler owns the job loops. Each job gets its own goroutine and a
// per-run timeout; Stop cancels everything and waits.
type Scheduler struct {
	logger *logging.Logger

	mu      sync.RWMutex
	jobs    map[string]*Job
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
		logger: logging.WithField("component", "scheduler"),
	}
}

// Register adds a job. Jobs registered after Start begin running
// immediately.
func (s *Scheduler) Register(job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if job.Handler == nil {
		return fmt.Errorf("job handler is required")
	}
	if job.Timeout == 0 {
		job.Timeout = 5 * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job already registered: %s", job.ID)
	}

	next := nextRun(job.Schedule, time.Now().UTC())
	job.NextRun = &next
	s.jobs[job.ID] = job

	if s.started {
		s.startJob(job)
	}
	return nil
}

// Start begins running all registered jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	for _, job := range s.jobs {
		s.startJob(job)
	}

	s.logger.Info("started with %d job(s)", len(s.jobs))
	return nil
}

// Stop cancels all job loops and waits for in-flight runs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("stopped")
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(jobID string) error {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}

	s.execute(s.ctx, job)
	return nil
}

// Jobs returns a snapshot of all registered jobs
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs
}

// Stats summarizes scheduler state
type Stats struct {
	Started     bool  `json:"started"`
	Jobs        int   `json:"jobs"`
	TotalRuns   int64 `json:"total_runs"`
	TotalErrors int64 `json:"total_errors"`
}

// GetStats returns scheduler statistics
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Started: s.started, Jobs: len(s.jobs)}
	for _, job := range s.jobs {
		stats.TotalRuns += job.RunCount
		stats.TotalErrors += job.ErrorCount
	}
	return stats
}

// startJob launches the loop for one job. Caller holds the mutex.
func (s *Scheduler) startJob(job *Job) {
	s.wg.Add(1)
	go s.runLoop(s.ctx, job)
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		wait := time.Until(*job.NextRun)
		s.mu.RUnlock()
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.execute(ctx, job)
		}
	}
}

// execute runs one job with its timeout and records the outcome
func (s *Scheduler) execute(ctx context.Context, job *Job) {
	execCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	now := time.Now().UTC()
	s.mu.Lock()
	job.LastRun = &now
	job.RunCount++
	s.mu.Unlock()

	err := job.Handler(execCtx)

	s.mu.Lock()
	if err != nil {
		job.ErrorCount++
		job.LastError = err.Error()
	} else {
		job.LastError = ""
	}
	next := nextRun(job.Schedule, time.Now().UTC())
	job.NextRun = &next
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job %s failed: %v", job.ID, err)
	}
}

// nextRun computes the next run time after now, in UTC
func nextRun(schedule Schedule, now time.Time) time.Time {
	switch schedule.Type {
	case ScheduleDaily:
		hour, minute := 6, 0
		fmt.Sscanf(schedule.At, "%d:%d", &hour, &minute)

		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next

	case ScheduleInterval:
		return now.Add(schedule.Interval)

	default:
		return now.Add(time.Hour)
	}
}

// IntervalJob builds a job that runs every interval
func IntervalJob(id, name string, interval time.Duration, handler JobHandler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleInterval, Interval: interval},
		Handler:  handler,
	}
}

// DailyJob builds a job that runs at "HH:MM" UTC each day
func DailyJob(id, name, at string, handler JobHandler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleDaily, At: at},
		Handler:  handler,
	}
}
