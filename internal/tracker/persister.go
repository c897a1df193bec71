package tracker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
)

// Persister saves document snapshots in the background.
//
// Snapshots are coalesced per user so only the latest one is written. Saves
// are serialized, so an older snapshot never overwrites a newer one. A
// failed save is logged and dropped; the in-memory document stays
// authoritative and the next mutation enqueues a fresh snapshot.
type Persister struct {
	store Store
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[string]*models.Document
	order   []string

	saveMu sync.Mutex
	wake   chan struct{}
}

// NewPersister creates a Persister writing to store.
func NewPersister(store Store) *Persister {
	return &Persister{
		store:   store,
		log:     logger.Component("persister"),
		pending: make(map[string]*models.Document),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue schedules doc to be saved for userID. doc must not be modified
// afterwards.
func (p *Persister) Enqueue(userID string, doc *models.Document) {
	p.mu.Lock()
	if _, ok := p.pending[userID]; !ok {
		p.order = append(p.order, userID)
	}
	p.pending[userID] = doc
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of users with unsaved snapshots.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run saves snapshots until ctx is cancelled, then flushes what is left.
func (p *Persister) Run(ctx context.Context) error {
	p.log.Info().Msg("Persister started")
	for {
		select {
		case <-ctx.Done():
			p.Flush(context.WithoutCancel(ctx))
			p.log.Info().Msg("Persister stopped")
			return nil
		case <-p.wake:
			p.Flush(ctx)
		}
	}
}

// Flush saves every pending snapshot now.
func (p *Persister) Flush(ctx context.Context) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	batch := p.pending
	order := p.order
	p.pending = make(map[string]*models.Document)
	p.order = nil
	p.mu.Unlock()

	for _, userID := range order {
		p.save(ctx, userID, batch[userID])
	}
}

// FlushUser saves the pending snapshot of one user, if any.
func (p *Persister) FlushUser(ctx context.Context, userID string) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	doc, ok := p.pending[userID]
	if ok {
		delete(p.pending, userID)
		for i, id := range p.order {
			if id == userID {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	p.mu.Unlock()

	if ok {
		p.save(ctx, userID, doc)
	}
}

func (p *Persister) save(ctx context.Context, userID string, doc *models.Document) {
	// The echoed copy is ignored: the tracker's document is authoritative.
	if _, err := p.store.Save(ctx, userID, doc); err != nil {
		telemetry.Add(ctx, telemetry.PersistFailures, 1)
		p.log.Error().
			Err(err).
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Failed to save document")
		return
	}
	p.log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int("goals", len(doc.Goals)).
		Msg("Document saved")
}
