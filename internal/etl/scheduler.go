package etl

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs one flow on a periodic interval. It is stateless: each tick
// independently recomputes from the store, so a missed or failed tick is
// simply superseded by the next.
type Scheduler struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// NewScheduler wraps a flow invocation for periodic execution.
func NewScheduler(name string, interval time.Duration, run func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		run:      run,
	}
}

// Start begins periodic execution with an immediate first run.
// Runs until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting flow scheduler", "flow", s.name, "interval", s.interval)

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)", "flow", s.name)
			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("[Scheduler] Flow run failed", "flow", s.name, "error", err)
	}
}
