package worker

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/logger"
)

// SessionCleanupInterval is how often expired sessions are removed.
const SessionCleanupInterval = 6 * time.Hour

// ExpiredSessionDeleter removes expired bearer sessions.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionCleanup removes expired sessions.
type SessionCleanup struct {
	sessions ExpiredSessionDeleter
	now      func() time.Time
}

// NewSessionCleanup creates the session cleanup job.
func NewSessionCleanup(sessions ExpiredSessionDeleter) *SessionCleanup {
	return &SessionCleanup{sessions: sessions, now: time.Now}
}

// Sweep removes the sessions expired at the time of the call.
func (c *SessionCleanup) Sweep(ctx context.Context) (int64, error) {
	n, err := c.sessions.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clean sessions: %w", err)
	}
	if n > 0 {
		logger.Log.Info().Int64("sessions", n).Msg("Removed expired sessions")
	}
	return n, nil
}

// Run sweeps on every tick of interval until ctx is cancelled.
func (c *SessionCleanup) Run(ctx context.Context, interval time.Duration) error {
	return RunEvery(ctx, "session_cleanup", interval, func(ctx context.Context) error {
		_, err := c.Sweep(ctx)
		return err
	})
}
