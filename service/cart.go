package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/conciergedev/concierge/core"
)

// InMemoryCart is a volatile core.CartService holding one cart per user.
// It is the source of truth the engine refreshes its conversation snapshot
// from after every mutation.
type InMemoryCart struct {
	mu    sync.RWMutex
	carts map[string]*core.CartSnapshot
}

var _ core.CartService = (*InMemoryCart)(nil)

// NewInMemoryCart constructs an empty cart service.
func NewInMemoryCart() *InMemoryCart {
	return &InMemoryCart{carts: make(map[string]*core.CartSnapshot)}
}

// Get returns the user's cart snapshot (empty if none exists yet).
func (s *InMemoryCart) Get(_ context.Context, userID string) (core.CartSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cart, ok := s.carts[userID]; ok {
		return cart.Clone(), nil
	}
	return core.CartSnapshot{Items: []core.CartItem{}}, nil
}

// AddItem appends an item (assigning an id if absent) and returns the
// fresh snapshot.
func (s *InMemoryCart) AddItem(_ context.Context, userID string, item core.CartItem) (core.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(userID)
	if item.ID == "" {
		item.ID = core.NewID()
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	cart.Items = append(cart.Items, item)
	cart.Recalculate()
	return cart.Clone(), nil
}

// RemoveItem deletes the item with the given id. Unknown ids fail.
func (s *InMemoryCart) RemoveItem(_ context.Context, userID, itemID string) (core.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(userID)
	for i, it := range cart.Items {
		if it.ID == itemID || it.EntryID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.Recalculate()
			return cart.Clone(), nil
		}
	}
	return core.CartSnapshot{}, fmt.Errorf("cart item %q not found for user %q", itemID, userID)
}

// SetQuantity updates an item's quantity. Unknown ids and non-positive
// quantities fail.
func (s *InMemoryCart) SetQuantity(_ context.Context, userID, itemID string, quantity int) (core.CartSnapshot, error) {
	if quantity <= 0 {
		return core.CartSnapshot{}, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID || cart.Items[i].EntryID == itemID {
			cart.Items[i].Quantity = quantity
			cart.Recalculate()
			return cart.Clone(), nil
		}
	}
	return core.CartSnapshot{}, fmt.Errorf("cart item %q not found for user %q", itemID, userID)
}

// Clear empties the user's cart.
func (s *InMemoryCart) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

func (s *InMemoryCart) cartLocked(userID string) *core.CartSnapshot {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &core.CartSnapshot{Items: []core.CartItem{}}
		s.carts[userID] = cart
	}
	return cart
}
