package cron

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSweeper finalizes pending countdowns whose deadline passed while no
// heartbeat arrived to observe them.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type AutoCloseJobs struct {
	sweeper ExpiredSweeper
}

func NewAutoCloseJobs(sweeper ExpiredSweeper) *AutoCloseJobs {
	return &AutoCloseJobs{sweeper: sweeper}
}

func (j *AutoCloseJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("sweep_expired_countdowns", interval, j.SweepExpiredCountdowns)
}

func (j *AutoCloseJobs) SweepExpiredCountdowns(ctx context.Context) error {
	closed, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		slog.Info("Cron: Swept expired countdowns", "closed", closed)
	}
	return nil
}
