// Package scheduler runs the periodic alert sweep and the daily A2P summary.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"DiscordArchive/internal/alerts"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

type alertSweeper interface {
	CheckAll(ctx context.Context) ([]alerts.Triggered, error)
}

type summaryNotifier interface {
	NotifySummary(ctx context.Context) (bool, error)
}

// Jobs holds the cron specs. An empty spec disables that job.
type Jobs struct {
	AlertSchedule      string
	A2PSummarySchedule string
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper alertSweeper
	summary summaryNotifier
	log     log15.Logger
}

func New(jobs Jobs, loc *time.Location, sweeper alertSweeper, summary summaryNotifier, log log15.Logger) (*Scheduler, error) {
	log = log.New("component", "scheduler")
	cl := cronLogger{log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		summary: summary,
		log:     log,
	}

	if jobs.AlertSchedule != "" {
		if _, err := s.cron.AddFunc(jobs.AlertSchedule, s.runAlertSweep); err != nil {
			return nil, fmt.Errorf("scheduler: alert schedule %q: %w", jobs.AlertSchedule, err)
		}
	}
	if jobs.A2PSummarySchedule != "" {
		if _, err := s.cron.AddFunc(jobs.A2PSummarySchedule, s.runA2PSummary); err != nil {
			return nil, fmt.Errorf("scheduler: a2p summary schedule %q: %w", jobs.A2PSummarySchedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) runAlertSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	triggered, err := s.sweeper.CheckAll(ctx)
	if err != nil {
		s.log.Error("Alert sweep failed", "err", err)
		return
	}
	s.log.Info("Alert sweep finished", "triggered", len(triggered), "took", time.Since(start))
}

func (s *Scheduler) runA2PSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.summary.NotifySummary(ctx); err != nil {
		s.log.Error("A2P summary failed", "err", err)
	}
}

// cronLogger routes cron's own logging through log15.
type cronLogger struct{ log log15.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
