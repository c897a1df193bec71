package tracker

import (
	"context"
	"sync"

	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

// Store persists one Document per user. Load returns nil, nil when the user
// has no stored document yet. Save is a whole-document upsert that returns
// the stored copy.
type Store interface {
	Load(ctx context.Context, userID string) (*models.Document, error)
	Save(ctx context.Context, userID string, doc *models.Document) (*models.Document, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*models.Document)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, userID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[userID].Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, userID string, doc *models.Document) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = doc.Clone()
	return doc.Clone(), nil
}
