package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/conciergedev/concierge/core"
)

var conversationsBucket = []byte("conversations")

// BoltStore is a keyed ConversationStore on a bbolt database: one record
// per key rather than a whole-collection rewrite, so a Put touches only the
// user it names. Use this backend when the JSON document grows beyond what
// full rewrites tolerate.
type BoltStore struct {
	db *bolt.DB
}

var _ core.ConversationStore = (*BoltStore)(nil)

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create conversations bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Get returns the stored record or core.ErrNotFound.
func (s *BoltStore) Get(_ context.Context, userID string) (*core.Conversation, error) {
	var conv *core.Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(userID))
		if v == nil {
			return core.ErrNotFound
		}
		conv = &core.Conversation{}
		if err := json.Unmarshal(v, conv); err != nil {
			return fmt.Errorf("decode conversation %q: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Put stores the record under the user id.
func (s *BoltStore) Put(_ context.Context, userID string, conv *core.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", userID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Put([]byte(userID), data)
	})
}

// List returns all user ids with a stored record.
func (s *BoltStore) List(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
