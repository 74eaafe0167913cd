package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/logging"
)

// FileStore keeps the whole conversation collection in a single JSON
// document mapping userID to record. The collection is loaded into memory
// at construction; every Put re-reads the file, merges the one record and
// rewrites the full document (last-writer-wins at collection granularity).
//
// An unreadable or unparseable file is treated as an empty collection and
// logged, never surfaced. The in-memory copy stays authoritative between
// writes.
type FileStore struct {
	path   string
	logger logging.Logger

	mu    sync.RWMutex
	convs map[string]*core.Conversation
}

var _ core.ConversationStore = (*FileStore)(nil)

// NewFileStore opens (or lazily creates) the collection at path.
func NewFileStore(path string, logger logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &FileStore{path: path, logger: logger}
	s.convs = s.readCollection()
	return s
}

// Get returns a clone of the in-memory record or core.ErrNotFound.
func (s *FileStore) Get(_ context.Context, userID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return conv.Clone(), nil
}

// Put merges the record into the collection and rewrites the document.
// The in-memory copy is updated even when the write fails, so the caller
// can log the error and continue the turn.
func (s *FileStore) Put(_ context.Context, userID string, conv *core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-read so records written by a previous process incarnation (or,
	// racily, another writer) are not dropped by the full rewrite.
	merged := s.readCollection()
	merged[userID] = conv.Clone()
	s.convs = merged

	return s.writeCollection(merged)
}

// List returns all user ids in the in-memory collection.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *FileStore) readCollection() map[string]*core.Conversation {
	out := map[string]*core.Conversation{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("conversation file unreadable, starting empty", "path", s.path, "error", err)
		}
		return out
	}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("conversation file unparseable, starting empty", "path", s.path, "error", err)
		return map[string]*core.Conversation{}
	}
	return out
}

func (s *FileStore) writeCollection(convs map[string]*core.Conversation) error {
	data, err := json.MarshalIndent(convs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation collection: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write conversation collection: %w", err)
	}
	return nil
}
