package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conciergedev/concierge/core"
)

// InMemoryOrders records created orders in memory. No payment or
// fulfillment happens behind it.
type InMemoryOrders struct {
	mu     sync.Mutex
	orders []core.Order
}

var _ core.OrderService = (*InMemoryOrders)(nil)

// NewInMemoryOrders constructs an empty order service.
func NewInMemoryOrders() *InMemoryOrders {
	return &InMemoryOrders{}
}

// Create validates the cart and records an order for it.
func (s *InMemoryOrders) Create(_ context.Context, userID string, cart core.CartSnapshot) (core.Order, error) {
	if len(cart.Items) == 0 {
		return core.Order{}, fmt.Errorf("cannot create an order for user %q from an empty cart", userID)
	}
	order := core.Order{
		ID:      core.NewID(),
		UserID:  userID,
		Items:   cart.Clone().Items,
		Total:   cart.Total,
		Created: time.Now().UTC(),
	}
	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
	return order, nil
}

// Orders returns a copy of all recorded orders, in creation order.
func (s *InMemoryOrders) Orders() []core.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Order, len(s.orders))
	copy(out, s.orders)
	return out
}
