package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
)

// Registry owns one Tracker per active user. Trackers are created on first
// use from the stored document, or from defaults when none is stored.
type Registry struct {
	store     Store
	persister *Persister
	engine    *goals.Engine
	notifier  Notifier
	now       func() time.Time

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry creates a Registry.
func NewRegistry(store Store, persister *Persister, engine *goals.Engine, notifier Notifier) *Registry {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Registry{
		store:     store,
		persister: persister,
		engine:    engine,
		notifier:  notifier,
		now:       time.Now,
		trackers:  make(map[string]*Tracker),
	}
}

// SetClock replaces time.Now for trackers created afterwards.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetNotifier replaces the notifier of trackers created afterwards.
func (r *Registry) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = n
}

// Get returns the tracker of userID, loading its document on first use.
// The store is read outside the registry lock, after any snapshot still
// pending for the user has been saved, so a reload never sees a document
// older than the one last accepted.
func (r *Registry) Get(ctx context.Context, userID string) (*Tracker, error) {
	r.mu.Lock()
	if t, ok := r.trackers[userID]; ok {
		r.mu.Unlock()
		return t, nil
	}
	now, notifier := r.now, r.notifier
	r.mu.Unlock()

	if r.persister != nil {
		r.persister.FlushUser(ctx, userID)
	}

	doc, err := r.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var saver Saver
	if r.persister != nil {
		saver = r.persister
	}
	t := New(userID, doc, r.engine, saver, WithClock(now), WithNotifier(notifier))

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.trackers[userID]; ok {
		return existing, nil
	}
	r.trackers[userID] = t

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Bool("stored", doc != nil).
		Msg("Tracker loaded")
	return t, nil
}

// Loaded reports whether the tracker of userID is in memory.
func (r *Registry) Loaded(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.trackers[userID]
	return ok
}

// Evict forgets the tracker of userID and saves its pending snapshot. A Get
// racing with the save waits for it before reading the store.
func (r *Registry) Evict(ctx context.Context, userID string) {
	r.mu.Lock()
	delete(r.trackers, userID)
	r.mu.Unlock()

	if r.persister != nil {
		r.persister.FlushUser(ctx, userID)
	}
}

// Active returns the number of loaded trackers.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
