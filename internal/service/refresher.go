package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refreshable is anything that can update the activity cache
type Refreshable interface {
	Refresh(ctx context.Context) (int, error)
}

// Refresher refreshes the activity cache on a cron schedule
type Refresher struct {
	target  Refreshable
	timeout time.Duration
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewRefresher schedules target with a standard cron spec or descriptor
// such as "@every 15m". Overlapping runs are skipped.
func NewRefresher(target Refreshable, schedule string, timeout time.Duration, logger *slog.Logger) (*Refresher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parsing refresh schedule %q: %w", schedule, err)
	}

	r := &Refresher{
		target:  target,
		timeout: timeout,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("scheduling refresh: %w", err)
	}
	return r, nil
}

// Start begins running the schedule in the background
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to end
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single refresh
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	n, err := r.target.Refresh(ctx)
	if err != nil {
		r.logger.Warn("scheduled refresh failed", "err", err)
		return 0, err
	}
	r.logger.Info("activity cache refreshed", "activities", n, "took", time.Since(start).Round(time.Millisecond))
	return n, nil
}
