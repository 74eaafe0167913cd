package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleHuman marks a turn authored by the end user.
	RoleHuman Role = "human"
	// RoleAssistant marks a turn authored by the engine.
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a conversation's history: a single message from
// either side, timestamped at append time.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the durable per-user record. History is append-only
// within a turn; transient session flags (GeneralChat, PendingSelection)
// and the cart snapshot are reset by cancel/process but the record itself
// is never deleted.
type Conversation struct {
	UserID           string       `json:"user_id"`
	Context          string       `json:"context"`
	History          []Turn       `json:"history"`
	GeneralChat      bool         `json:"general_chat"`
	PendingSelection string       `json:"pending_selection,omitempty"`
	Cart             CartSnapshot `json:"cart"`
	Created          time.Time    `json:"created"`
	Updated          time.Time    `json:"updated"`
}

// NewConversation creates an empty record for a user with the given
// starting context (the canonical lowercase provider identifier).
func NewConversation(userID, defaultContext string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		UserID:  userID,
		Context: defaultContext,
		History: []Turn{},
		Created: now,
		Updated: now,
	}
}

// AppendTurn adds a turn to the history and bumps the Updated timestamp.
func (c *Conversation) AppendTurn(role Role, content string) {
	now := time.Now().UTC()
	c.History = append(c.History, Turn{Role: role, Content: content, Timestamp: now})
	c.Updated = now
}

// PriorQuestions returns the distinct human messages in the history,
// preserving first-seen order. Duplicates are removed by exact content
// equality.
func (c *Conversation) PriorQuestions() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range c.History {
		if t.Role != RoleHuman || seen[t.Content] {
			continue
		}
		seen[t.Content] = true
		out = append(out, t.Content)
	}
	return out
}

// ResetTransient clears the session flags and cart snapshot while keeping
// context and history intact. Used by cancel and by successful order
// processing.
func (c *Conversation) ResetTransient() {
	c.GeneralChat = false
	c.PendingSelection = ""
	c.Cart = CartSnapshot{}
	c.Updated = time.Now().UTC()
}

// Clone returns a deep copy safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.History = make([]Turn, len(c.History))
	copy(clone.History, c.History)
	clone.Cart = c.Cart.Clone()
	return &clone
}

// ConversationStore persists conversation records keyed by user id.
//
// Implementations are last-writer-wins: there is no per-user locking, so
// two concurrent turns for the same user can lose updates. Callers that
// need correctness under concurrency must serialize requests per user
// externally. Operations on distinct user ids are independent.
type ConversationStore interface {
	// Get returns the stored record or ErrNotFound.
	Get(ctx context.Context, userID string) (*Conversation, error)
	// Put stores (replacing) the record for a user.
	Put(ctx context.Context, userID string, conv *Conversation) error
	// List returns all user ids with a stored record.
	List(ctx context.Context) ([]string, error)
}

// NewID generates a unique identifier for orders and other domain objects.
func NewID() string { return uuid.NewString() }
