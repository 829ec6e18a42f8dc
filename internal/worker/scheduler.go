// Package worker runs background jobs on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"change-aggregator/internal/core/ports"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const reconcileTimeout = time.Minute

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	reconcile ports.ReconciliationService
	schedule  string
	log       zerolog.Logger
}

// NewScheduler creates a scheduler that runs balance reconciliation on schedule
// (standard cron syntax or descriptors such as "@every 5m").
func NewScheduler(reconcile ports.ReconciliationService, schedule string, log zerolog.Logger) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		reconcile: reconcile,
		schedule:  schedule,
		log:       log,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runReconciliation); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.schedule, err)
	}
	s.log.Info().Str("schedule", s.schedule).Msg("scheduled reconciliation job")
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	start := time.Now()
	mismatches, err := s.reconcile.Reconcile(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconciliation job failed")
		return
	}
	evt := s.log.Info()
	if len(mismatches) > 0 {
		evt = s.log.Warn()
	}
	evt.Int("mismatches", len(mismatches)).Dur("took", time.Since(start)).Msg("reconciliation job finished")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
