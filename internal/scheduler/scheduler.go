// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: publishing due
// articles, pruning the system event log and reloading the GeoIP database.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default schedules.
const (
	PublishSchedule     = "* * * * *"
	PruneEventsSchedule = "15 3 * * *"
	GeoIPSchedule       = "0 * * * *"
)

// jobTimeout bounds a single job run.
const jobTimeout = time.Minute

// Publisher promotes due scheduled articles.
type Publisher interface {
	PublishDue(ctx context.Context) (int64, error)
}

// EventPruner deletes old system events.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reloads an external data file.
type Reloader interface {
	Reload() error
}

// Observer receives job outcomes.
type Observer interface {
	JobRun(job string, err error)
	ArticlesPublished(n int64)
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	NextRun   time.Time `json:"next_run,omitzero"`
}

type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
	run      func(context.Context) error

	mu        sync.Mutex
	lastRun   time.Time
	lastError string
}

// Scheduler handles scheduled tasks like publishing articles.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	observer Observer

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a new scheduler instance. observer may be nil.
func New(logger *slog.Logger, observer Observer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   logger,
		observer: observer,
		jobs:     make(map[string]*job),
	}
}

// Add registers a job under a cron schedule.
func (s *Scheduler) Add(name, schedule string, run func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	j := &job{name: name, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// AddPublishJob promotes due scheduled articles every minute.
func (s *Scheduler) AddPublishJob(p Publisher) error {
	return s.Add("publish_scheduled", PublishSchedule, func(ctx context.Context) error {
		n, err := p.PublishDue(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("published scheduled articles", "count", n)
			if s.observer != nil {
				s.observer.ArticlesPublished(n)
			}
		}
		return nil
	})
}

// AddPruneEventsJob deletes system events older than retention once a day.
func (s *Scheduler) AddPruneEventsJob(p EventPruner, retention time.Duration) error {
	return s.Add("prune_events", PruneEventsSchedule, func(ctx context.Context) error {
		n, err := p.DeleteOldEvents(ctx, retention)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("pruned system events", "count", n, "retention", retention.String())
		}
		return nil
	})
}

// AddGeoIPReloadJob reopens the GeoIP database hourly if it changed on disk.
func (s *Scheduler) AddGeoIPReloadJob(r Reloader) error {
	return s.Add("reload_geoip", GeoIPSchedule, func(context.Context) error {
		return r.Reload()
	})
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Trigger runs a job immediately, outside its schedule.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return s.execute(j)
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		info := JobInfo{
			Name:      j.name,
			Schedule:  j.schedule,
			LastRun:   j.lastRun,
			LastError: j.lastError,
			NextRun:   s.cron.Entry(j.entryID).Next,
		}
		j.mu.Unlock()
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// execute runs j once. Errors are logged and recorded, never fatal.
func (s *Scheduler) execute(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	err := j.run(ctx)

	j.mu.Lock()
	j.lastRun = start.UTC()
	j.lastError = ""
	if err != nil {
		j.lastError = err.Error()
	}
	j.mu.Unlock()

	if s.observer != nil {
		s.observer.JobRun(j.name, err)
	}
	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
	}
	return err
}
