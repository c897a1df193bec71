// Package worker runs the periodic background jobs: the automation sweep
// and the removal of expired sessions.
package worker

import (
	"context"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/logger"
)

// Job is one pass of a periodic task.
type Job func(ctx context.Context) error

// RunEvery runs job once immediately and then every interval until ctx is
// cancelled. Job errors are logged and do not stop the loop.
func RunEvery(ctx context.Context, name string, interval time.Duration, job Job) error {
	logger.Log.Info().
		Str("job", name).
		Dur("interval", interval).
		Msg("Worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		if err := job(ctx); err != nil && ctx.Err() == nil {
			logger.Log.Error().Err(err).Str("job", name).Msg("Worker run failed")
		}
	}

	if ctx.Err() == nil {
		run()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Str("job", name).Msg("Worker stopped")
			return nil
		case <-ticker.C:
			run()
		}
	}
}
