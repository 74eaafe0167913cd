// Package concierge provides a high-level façade over the turn engine and
// its service abstractions (conversation store, cart, orders, resource
// listings & logging) enabling rapid construction of a conversational
// ordering assistant. Most applications interact with this package by:
//  1. Creating a Concierge via New() with a text generator and a catalog
//     (optionally overriding the default in-memory services)
//  2. Sending user turns through Chat()
//  3. Inspecting stored conversations via Conversation()/Conversations()
//
// The façade delegates turn handling to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable
// conversation store and a structured logger.
package concierge

import (
	"context"
	"time"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/engine"
	"github.com/conciergedev/concierge/logging"
	"github.com/conciergedev/concierge/model"
)

// Options configures the Concierge instance.
type Options struct {
	// Store persists conversation records per user. Defaults to an
	// in-memory store.
	Store core.ConversationStore

	// Carts is the cart backend. Defaults to the in-memory implementation.
	Carts core.CartService

	// Orders creates orders from carts. Defaults to the in-memory
	// implementation.
	Orders core.OrderService

	// Resources serves live resource listings. Defaults to the static demo
	// lister.
	Resources core.ResourceLister

	// Deployer is invoked on completed field submissions. Defaults to the
	// logging stub.
	Deployer core.Deployer

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// DefaultContext is the provider scope applied to fresh conversations.
	DefaultContext string

	// FriendlyMenus selects the suggestion-phrased option menu over the
	// terse one.
	FriendlyMenus bool

	// GenerationTimeout bounds each text-generation call.
	GenerationTimeout time.Duration
}

// Concierge is the high-level façade aggregating the engine and services.
type Concierge struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new Concierge with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(generator model.Generator, cat core.Catalog, optFns ...func(o *Options)) *Concierge {
	opts := Options{
		Logger:            logging.NoOpLogger{},
		DefaultContext:    engine.DefaultContext,
		FriendlyMenus:     true,
		GenerationTimeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(generator, cat, func(o *engine.Options) {
		if opts.Store != nil {
			o.Store = opts.Store
		}
		if opts.Carts != nil {
			o.Carts = opts.Carts
		}
		if opts.Orders != nil {
			o.Orders = opts.Orders
		}
		if opts.Resources != nil {
			o.Resources = opts.Resources
		}
		if opts.Deployer != nil {
			o.Deployer = opts.Deployer
		}
		o.Logger = opts.Logger
		o.DefaultContext = opts.DefaultContext
		o.FriendlyMenus = opts.FriendlyMenus
		o.GenerationTimeout = opts.GenerationTimeout
	})

	return &Concierge{opts: opts, engine: e}
}

// Chat processes one user turn and returns the structured reply. The only
// surfaced error is core.ErrMissingUserID; all later failures degrade to
// apologetic replies.
func (c *Concierge) Chat(ctx context.Context, req engine.ChatRequest) (*core.Reply, error) {
	return c.engine.Chat(ctx, req)
}

// Conversation returns the stored record for a user, or core.ErrNotFound.
func (c *Concierge) Conversation(ctx context.Context, userID string) (*core.Conversation, error) {
	return c.engine.Conversation(ctx, userID)
}

// Conversations lists the user ids with a stored record.
func (c *Concierge) Conversations(ctx context.Context) ([]string, error) {
	return c.engine.Conversations(ctx)
}
