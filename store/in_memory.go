package store

import (
	"context"
	"sync"

	"github.com/conciergedev/concierge/core"
)

// InMemoryStore is a volatile ConversationStore keeping records in a
// process-local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Records are cloned on the way in and
// out to prevent external mutation of internal state.
type InMemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*core.Conversation
}

var _ core.ConversationStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{convs: make(map[string]*core.Conversation)}
}

// Get returns a clone of the stored record or core.ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, userID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return conv.Clone(), nil
}

// Put stores a clone of the record.
func (s *InMemoryStore) Put(_ context.Context, userID string, conv *core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[userID] = conv.Clone()
	return nil
}

// List returns all user ids with a stored record.
func (s *InMemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	return ids, nil
}
