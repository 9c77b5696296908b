// Package scheduler runs the periodic maintenance jobs: expiring idle game
// sessions and pruning in-memory throttle claims.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"mine_economy/internal/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode so a slow
// sweep never overlaps the next one.
type Scheduler struct {
	sched gocron.Scheduler
}

func New(clock clockwork.Clock) (*Scheduler, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{sched: sched}, nil
}

// Every registers fn to run each interval under ctx.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			start := time.Now()
			fn(ctx)
			logger.Debug("scheduled job done", "job", name, "took", time.Since(start))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
