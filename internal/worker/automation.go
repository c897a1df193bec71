package worker

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UserLister lists the users with a stored document.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Trackers returns the live tracker of a user.
type Trackers interface {
	Get(ctx context.Context, userID string) (*tracker.Tracker, error)
	Loaded(userID string) bool
	Evict(ctx context.Context, userID string)
}

// Automation performs the due automatic contributions of every user.
type Automation struct {
	users    UserLister
	trackers Trackers
}

// NewAutomation creates the automation sweep.
func NewAutomation(users UserLister, trackers Trackers) *Automation {
	return &Automation{users: users, trackers: trackers}
}

// Sweep runs the automations of every stored user once and returns the
// number of contributions made. A user whose tracker fails to load is
// skipped. Trackers loaded only for the sweep are saved and released
// afterwards.
func (a *Automation) Sweep(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "worker.automation_sweep")
	defer span.End()

	userIDs, err := a.users.ListUserIDs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list users")
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		loaded := a.trackers.Loaded(userID)
		t, err := a.trackers.Get(ctx, userID)
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load tracker for automations")
			continue
		}
		if n := t.RunAutomations(ctx); n > 0 {
			total += n
			logger.Log.Info().
				Str("user_hash", logger.HashUserID(userID)).
				Int("contributions", n).
				Msg("Ran automatic contributions")
		}
		if !loaded {
			a.trackers.Evict(ctx, userID)
		}
	}

	span.SetAttributes(
		attribute.Int("users", len(userIDs)),
		attribute.Int("contributions", total),
	)
	return total, nil
}

// Run sweeps on every tick of interval until ctx is cancelled.
func (a *Automation) Run(ctx context.Context, interval time.Duration) error {
	return RunEvery(ctx, "automation", interval, func(ctx context.Context) error {
		_, err := a.Sweep(ctx)
		return err
	})
}
