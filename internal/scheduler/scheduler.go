package scheduler

import (
	"context"
	"errors"
	"fmt"

	"InflectionTracker/internal/tracker"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Runner is one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*tracker.Result, error)
	Symbol() string
}

// Scheduler triggers tracker runs on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context
}

// NewScheduler creates a new Scheduler. Cron expressions include seconds.
func NewScheduler(ctx context.Context, r Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: r,
		Ctx:    ctx,
	}
}

// Register adds the periodic run task.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.runTask); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	log.Info().Str("cron", expr).Str("symbol", s.Runner.Symbol()).Msg("run task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the run task immediately (for manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.runTask()
}

func (s *Scheduler) runTask() {
	log.Info().Str("symbol", s.Runner.Symbol()).Msg("running scheduled task")
	_, err := s.Runner.Run(s.Ctx)
	switch {
	case errors.Is(err, tracker.ErrRunInProgress):
		log.Warn().Msg("previous run still in progress, skipping")
	case err != nil:
		log.Error().Err(err).Msg("scheduled run failed")
	}
}
