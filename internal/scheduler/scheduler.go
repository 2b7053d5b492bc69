// Package scheduler runs periodic housekeeping against the store.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	// DefaultInterval is how often housekeeping runs.
	DefaultInterval = time.Hour
	// DefaultTestTTL is how long an unsubmitted test stays open.
	DefaultTestTTL = 24 * time.Hour
)

// Cleaner removes stale records.
type Cleaner interface {
	CleanupExpiredSessions() (int64, error)
	CleanupIssuedTests(cutoff time.Time) (int64, error)
}

// Scheduler manages scheduled housekeeping.
type Scheduler struct {
	cron    *gocron.Scheduler
	store   Cleaner
	testTTL time.Duration
	now     func() time.Time
}

// New creates a scheduler. testTTL <= 0 uses DefaultTestTTL.
func New(store Cleaner, testTTL time.Duration) *Scheduler {
	if testTTL <= 0 {
		testTTL = DefaultTestTTL
	}
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		store:   store,
		testTTL: testTTL,
		now:     time.Now,
	}
}

// Start schedules housekeeping every interval and returns immediately.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if _, err := s.cron.Every(interval).Do(s.RunOnce); err != nil {
		return err
	}
	s.cron.StartAsync()
	return nil
}

// Stop terminates scheduled jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce drops expired sign-in tokens and abandoned tests.
func (s *Scheduler) RunOnce() {
	if n, err := s.store.CleanupExpiredSessions(); err != nil {
		slog.Error("cleanup auth sessions", "error", err)
	} else if n > 0 {
		slog.Info("removed expired auth sessions", "count", n)
	}
	if n, err := s.store.CleanupIssuedTests(s.now().Add(-s.testTTL)); err != nil {
		slog.Error("cleanup issued tests", "error", err)
	} else if n > 0 {
		slog.Info("removed abandoned tests", "count", n)
	}
}
