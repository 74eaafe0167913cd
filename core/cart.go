package core

import (
	"context"
	"time"
)

// CartItem is one line in a user's cart.
type CartItem struct {
	ID       string            `json:"id"`
	EntryID  string            `json:"entry_id"`
	Name     string            `json:"name"`
	Price    float64           `json:"price"`
	Quantity int               `json:"quantity"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// CartSnapshot is the denormalized cache of the domain cart kept on the
// conversation record. It is refreshed from the cart service after every
// mutating action; the service remains the source of truth.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// Recalculate recomputes Total from the items.
func (s *CartSnapshot) Recalculate() {
	total := 0.0
	for _, it := range s.Items {
		total += it.Price * float64(it.Quantity)
	}
	s.Total = total
}

// Clone returns a deep copy of the snapshot.
func (s CartSnapshot) Clone() CartSnapshot {
	out := CartSnapshot{Total: s.Total}
	if s.Items != nil {
		out.Items = make([]CartItem, len(s.Items))
		copy(out.Items, s.Items)
		for i, it := range s.Items {
			if it.Fields == nil {
				continue
			}
			fields := make(map[string]string, len(it.Fields))
			for k, v := range it.Fields {
				fields[k] = v
			}
			out.Items[i].Fields = fields
		}
	}
	return out
}

// Order is the result of processing a cart.
type Order struct {
	ID      string     `json:"id"`
	UserID  string     `json:"user_id"`
	Items   []CartItem `json:"items"`
	Total   float64    `json:"total"`
	Created time.Time  `json:"created"`
}

// CartService is the external cart API. Every mutation returns the fresh
// snapshot so callers can refresh their cached copy from the source of
// truth in the same call.
type CartService interface {
	Get(ctx context.Context, userID string) (CartSnapshot, error)
	AddItem(ctx context.Context, userID string, item CartItem) (CartSnapshot, error)
	RemoveItem(ctx context.Context, userID, itemID string) (CartSnapshot, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (CartSnapshot, error)
	Clear(ctx context.Context, userID string) error
}

// OrderService creates orders from carts.
type OrderService interface {
	Create(ctx context.Context, userID string, cart CartSnapshot) (Order, error)
}

// Resource is a live cloud resource returned by the lister.
type Resource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Region string `json:"region,omitempty"`
	Status string `json:"status,omitempty"`
}

// ResourceLister enumerates live resources. Supports reports whether the
// (context, resourceType) combination is defined; List must only be called
// for supported combinations.
type ResourceLister interface {
	Supports(context, resourceType string) bool
	List(ctx context.Context, contextName, resourceType string) ([]Resource, error)
}

// Deployer is the provisioning stub. Deploy returns a deployment
// identifier; no real provisioning happens behind it.
type Deployer interface {
	Deploy(ctx context.Context, userID string, entry CatalogEntry, fields map[string]string) (string, error)
}
