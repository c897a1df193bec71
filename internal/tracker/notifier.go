package tracker

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/savings-tracker/internal/goals"
)

// Notifier receives goal completion events. It is called outside the
// tracker lock, on its own goroutine.
type Notifier interface {
	GoalCompleted(ctx context.Context, userID string, event goals.CompletionEvent) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

// GoalCompleted implements Notifier.
func (NopNotifier) GoalCompleted(context.Context, string, goals.CompletionEvent) error {
	return nil
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID string, event goals.CompletionEvent) error

// GoalCompleted implements Notifier.
func (f NotifierFunc) GoalCompleted(ctx context.Context, userID string, event goals.CompletionEvent) error {
	return f(ctx, userID, event)
}

// MultiNotifier fans an event out to several notifiers.
type MultiNotifier []Notifier

// GoalCompleted implements Notifier. Every notifier is called; errors are joined.
func (m MultiNotifier) GoalCompleted(ctx context.Context, userID string, event goals.CompletionEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.GoalCompleted(ctx, userID, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
