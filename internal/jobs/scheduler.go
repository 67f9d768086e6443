package jobs

import (
	"context"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

// Schedules holds the cron expressions of each job.
type Schedules struct {
	CacheEvict   string
	Expiry       string
	DailySend    string
	LicenseCheck string
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct{}

func (cronLogger) Printf(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	schedules Schedules
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, schedules Schedules) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(cronLogger{}))))
	return &Scheduler{
		cron:      c,
		jobs:      jobs,
		schedules: schedules,
	}
}

// Start registers the jobs and starts the cron scheduler. It returns the
// number of jobs registered.
func (s *Scheduler) Start() int {
	entries := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"cache eviction", s.schedules.CacheEvict, s.jobs.EvictCache},
		{"subscription expiry", s.schedules.Expiry, s.jobs.ExpireSubscriptions},
		{"confirmation code cleanup", s.schedules.Expiry, s.jobs.CleanConfirmationCodes},
		{"daily cards", s.schedules.DailySend, func() { s.jobs.SendDailyCards() }},
		{"licence check", s.schedules.LicenseCheck, s.jobs.CheckLicense},
	}

	registered := 0
	for _, e := range entries {
		if e.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(e.schedule, e.run); err != nil {
			logger.Warningf("Failed to schedule %s job: %v", e.name, err)
			continue
		}
		logger.Infof("Scheduled %s job (%s)", e.name, e.schedule)
		registered++
	}

	s.cron.Start()
	return registered
}

// Stop stops the scheduler; the returned context is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
