package pipeline

// scheduler.go runs the pipeline periodically inside the server.
//
// The scheduler runs once on start, then on every cron fire, and stops when
// its context is cancelled. A fire that finds a run in progress is skipped
// instead of queued. Run failures are logged and never stop the scheduler.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// StartScheduler blocks, running p on spec until ctx is done. spec is a five
// field cron expression or a descriptor such as "@every 30m"; an empty spec
// returns immediately.
func (p *Pipeline) StartScheduler(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { p.scheduledRun(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	slog.Info("pipeline scheduler started", "schedule", spec)

	p.scheduledRun(ctx)
	c.Start()

	<-ctx.Done()
	// Stop waits for a fire that is already running.
	<-c.Stop().Done()
	slog.Info("pipeline scheduler stopped")
	return nil
}

// scheduledRun performs one run if the slot is free and never waits for it.
func (p *Pipeline) scheduledRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	res, err := p.TryRun(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Info("scheduled run skipped, run in progress")
	case err != nil && res == nil:
		slog.Error("scheduled run failed", "error", err)
	case err != nil:
		slog.Warn("scheduled run completed with table errors", "run_id", res.RunID, "error", err)
	default:
		slog.Info("scheduled run completed", "run_id", res.RunID, "tables", len(res.Tables))
	}
}
