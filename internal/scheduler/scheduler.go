package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc is invoked at every scheduled check time.
type RunFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour. When Cron is set it takes precedence over the
// fixed interval, so checks can land at fixed wall-clock times (e.g. "0 7,19 * * *"
// for twice daily).
type Options struct {
	Interval     time.Duration
	Cron         string
	AlignToStart bool
	StartupDelay time.Duration
}

// Scheduler drives periodic execution of the check workflow.
type Scheduler struct {
	opts     Options
	schedule cron.Schedule
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, clock clockwork.Clock, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		opts:   opts,
		clock:  clock,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	if opts.Cron != "" {
		schedule, err := cron.ParseStandard(opts.Cron)
		if err != nil {
			return nil, fmt.Errorf("parse scheduler.cron: %w", err)
		}
		s.schedule = schedule
		return s, nil
	}

	if opts.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}
	return s, nil
}

// Run blocks, invoking run at each scheduled time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, run RunFunc) error {
	if s.opts.StartupDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.opts.StartupDelay):
		}
	}

	for {
		now := s.clock.Now()
		next := s.next(now)
		s.logger.Debug().Time("next_run", next).Msg("waiting for next check")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		s.logger.Info().Time("run", next).Msg("executing scheduled check")
		if err := run(ctx, next); err != nil {
			s.logger.Error().Err(err).Time("run", next).Msg("check execution failed")
		}
	}
}

// next computes the first scheduled time strictly after now.
func (s *Scheduler) next(now time.Time) time.Time {
	if s.schedule != nil {
		return s.schedule.Next(now)
	}
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	aligned := now.Truncate(s.opts.Interval)
	if !aligned.After(now) {
		aligned = aligned.Add(s.opts.Interval)
	}
	return aligned
}
