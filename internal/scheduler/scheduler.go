package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ibeckermayer/likesearch/internal/logging"
)

var schedLog = logging.ForComponent(logging.CompScheduler)

// RefreshJobName is the job that re-runs the last search
const RefreshJobName = "refresh"

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	mu         sync.Mutex
	cron       *cron.Cron
	jobs       map[string]cron.EntryID
	timezone   *time.Location
	jobTimeout time.Duration
}

// New creates a new scheduler with the given timezone
func New(timezone string, jobTimeout time.Duration) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	// Skip a tick while the previous refresh is still scrolling
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	return &Scheduler{
		cron:       c,
		jobs:       make(map[string]cron.EntryID),
		timezone:   loc,
		jobTimeout: jobTimeout,
	}, nil
}

// AddJob adds a job with a cron schedule
// schedule format: "0 7 * * *" (at 7:00 AM daily) or "@every 6h"
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(name, job); err != nil {
			schedLog.Error("job_failed", slog.String("job", name), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()

	schedLog.Info("job_added", slog.String("job", name), slog.String("schedule", schedule))
	return nil
}

// AddRefreshJob re-runs job every interval
func (s *Scheduler) AddRefreshJob(every time.Duration, job Job) error {
	if every < time.Minute {
		return fmt.Errorf("refresh interval %v is shorter than a minute", every)
	}
	return s.AddJob(RefreshJobName, "@every "+every.String(), job)
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	schedLog.Info("scheduler_start")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	schedLog.Info("scheduler_stop")
	return s.cron.Stop()
}

// RunNow immediately executes a job
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx := context.Background()
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	schedLog.Info("job_start", slog.String("job", name))
	start := time.Now()
	if err := job(ctx); err != nil {
		return err
	}
	schedLog.Info("job_done", slog.String("job", name), slog.Duration("took", time.Since(start)))
	return nil
}

// ListJobs returns info about scheduled jobs. NextRun is only set once the
// scheduler has started.
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()

	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(entries))
	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// NextRun returns when the named job runs next
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	for _, j := range s.ListJobs() {
		if j.Name == name {
			return j.NextRun, !j.NextRun.IsZero()
		}
	}
	return time.Time{}, false
}
