package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/conciergedev/concierge/catalog"
	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/logging"
	"github.com/conciergedev/concierge/model"
	"github.com/conciergedev/concierge/service"
	"github.com/conciergedev/concierge/store"
)

// DefaultContext is the provider scope applied when neither the message,
// the request nor the stored conversation names one.
const DefaultContext = "aws"

// Providers is the closed set of context identifiers a conversation can be
// scoped to.
var Providers = []string{"aws", "azure", "gcp"}

// ChatRequest is one inbound turn.
type ChatRequest struct {
	Message string           `json:"message"`
	UserID  string           `json:"userId"`
	Context string           `json:"context,omitempty"`
	Fields  *FieldSubmission `json:"fields,omitempty"`
}

// FieldSubmission carries the required-field values a user filled in after
// a fields-required reply. Template names the catalog entry the values
// belong to.
type FieldSubmission struct {
	FormData map[string]string `json:"formData"`
	Template string            `json:"template,omitempty"`
}

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Store persists conversation records.
	Store core.ConversationStore
	// Carts is the external cart API.
	Carts core.CartService
	// Orders creates orders from carts.
	Orders core.OrderService
	// Resources lists live cloud resources.
	Resources core.ResourceLister
	// Deployer is the provisioning stub invoked on field submission.
	Deployer core.Deployer
	// Logger receives structured diagnostics.
	Logger logging.Logger
	// DefaultContext overrides the hard default provider scope.
	DefaultContext string
	// FriendlyMenus selects the suggestion-phrased option menu.
	FriendlyMenus bool
	// GenerationTimeout bounds each text-generation call.
	GenerationTimeout time.Duration
	// Now supplies the clock; tests override it for the time-of-day
	// greeting.
	Now func() time.Time
}

// Engine drives the turn pipeline. Public methods are safe for concurrent
// use across distinct user ids; concurrent turns for the same user id race
// on the conversation record (see core.ConversationStore).
type Engine struct {
	generator model.Generator
	catalog   core.Catalog

	store     core.ConversationStore
	carts     core.CartService
	orders    core.OrderService
	resources core.ResourceLister
	deployer  core.Deployer
	logger    logging.Logger

	defaultContext    string
	friendlyMenus     bool
	generationTimeout time.Duration
	now               func() time.Time

	rules []routeRule
}

// New constructs an Engine with optional overrides. Defaults are in-memory
// services suitable for tests and demos.
func New(generator model.Generator, cat core.Catalog, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Store:             store.NewInMemoryStore(),
		Carts:             service.NewInMemoryCart(),
		Orders:            service.NewInMemoryOrders(),
		Resources:         service.NewDefaultResourceLister(),
		Deployer:          service.NewStubDeployer(),
		Logger:            logging.NoOpLogger{},
		DefaultContext:    DefaultContext,
		FriendlyMenus:     true,
		GenerationTimeout: 30 * time.Second,
		Now:               time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{
		generator:         generator,
		catalog:           cat,
		store:             opts.Store,
		carts:             opts.Carts,
		orders:            opts.Orders,
		resources:         opts.Resources,
		deployer:          opts.Deployer,
		logger:            opts.Logger,
		defaultContext:    strings.ToLower(opts.DefaultContext),
		friendlyMenus:     opts.FriendlyMenus,
		generationTimeout: opts.GenerationTimeout,
		now:               opts.Now,
	}
	e.rules = e.routeRules()
	return e
}

// turnStage names a pipeline phase; the state machine is strictly linear
// Routing -> Resolving -> Executing -> Synthesizing -> Done, with a single
// bounded executor re-entry owned by the synthesizer.
type turnStage int

const (
	stageRouting turnStage = iota
	stageResolving
	stageExecuting
	stageSynthesizing
	stageDone
)

// turnState is the typed context passed between stages. The result field
// is the shared mutable outcome the executor branches write into, so one
// branch can set a message, an event tag and state fields together.
type turnState struct {
	req    ChatRequest
	stage  turnStage
	conv   *core.Conversation
	action core.Action
	result turnResult
	reply  *core.Reply

	// resummarized guards the single summarize re-entry.
	resummarized bool
}

// turnResult is the executor's outcome record. event is the
// machine-readable tag; message, when set, short-circuits the second
// generation call.
type turnResult struct {
	event    string
	workflow string
	message  string

	match     *core.CatalogEntry
	available []string

	questions     []string
	questionCount *int

	resources []core.Resource
	cart      *core.CartSnapshot
}

// Outcome event tags.
const (
	eventCatalogMatch    = "catalog-match"
	eventCatalogMiss     = "catalog-miss"
	eventCartUpdated     = "cart-updated"
	eventCartFailed      = "cart-failed"
	eventOrderCreated    = "order-created"
	eventOrderFailed     = "order-failed"
	eventCancelled       = "cancelled"
	eventContextSelected = "context-selected"
	eventOptions         = "options"
	eventSummary         = "summary"
	eventResources       = "resources"
)

// Chat processes one turn end to end and returns the structured reply.
// The only surfaced error is core.ErrMissingUserID; every later failure
// degrades to an apologetic reply.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (*core.Reply, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, core.ErrMissingUserID
	}
	started := e.now()

	st := &turnState{req: req, stage: stageRouting}
	st.conv = e.loadConversation(ctx, req.UserID)
	e.resolveContext(st)

	if reply := e.route(ctx, st); reply != nil {
		return reply, nil
	}

	st.stage = stageResolving
	e.resolve(ctx, st)

	st.stage = stageExecuting
	e.execute(ctx, st)

	st.stage = stageSynthesizing
	e.synthesize(ctx, st)

	st.stage = stageDone
	reply := e.finishTurn(ctx, st)
	e.logger.Info("turn completed",
		"user_id", req.UserID,
		"action_type", string(st.action.Type),
		"workflow", reply.Workflow,
		"duration", e.now().Sub(started).String(),
	)
	return reply, nil
}

// Conversation returns the stored record for a user, or core.ErrNotFound.
func (e *Engine) Conversation(ctx context.Context, userID string) (*core.Conversation, error) {
	return e.store.Get(ctx, userID)
}

// Conversations returns all user ids with stored history.
func (e *Engine) Conversations(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// loadConversation fetches or creates the record. Store read failures are
// logged and treated as an absent record; the in-memory copy built here is
// authoritative for the turn.
func (e *Engine) loadConversation(ctx context.Context, userID string) *core.Conversation {
	conv, err := e.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			e.logger.Warn("conversation load failed, starting fresh", "user_id", userID, "error", err)
		}
		return core.NewConversation(userID, e.defaultContext)
	}
	if conv.Context == "" {
		conv.Context = e.defaultContext
	}
	return conv
}

// resolveContext applies the precedence explicit-message-token >
// caller-supplied > stored > default.
func (e *Engine) resolveContext(st *turnState) {
	if p := detectProvider(st.req.Message); p != "" {
		st.conv.Context = p
		return
	}
	if p := canonicalProvider(st.req.Context); p != "" {
		st.conv.Context = p
		return
	}
	if st.conv.Context == "" {
		st.conv.Context = e.defaultContext
	}
}

// finishTurn appends both turns, persists and attaches the final menu.
// Persistence failures are logged, never surfaced; the in-memory record
// stays authoritative until the next successful write.
func (e *Engine) finishTurn(ctx context.Context, st *turnState) *core.Reply {
	if st.reply == nil {
		st.reply = core.NewReply(core.WorkflowGeneral, apologyMessage)
	}
	st.reply.Response.Menu = e.menu(st.conv.Context)

	st.conv.AppendTurn(core.RoleHuman, st.req.Message)
	st.conv.AppendTurn(core.RoleAssistant, st.reply.Response.Message)
	if err := e.store.Put(ctx, st.req.UserID, st.conv); err != nil {
		e.logger.Error("conversation persist failed", "user_id", st.req.UserID, "error", err)
	}
	return st.reply
}

// menu recomputes the context-scoped option list. Called at the very end
// of every path so stale menus never leak through.
func (e *Engine) menu(contextName string) []string {
	return catalog.Options(contextName, e.catalog.Entries(contextName), e.friendlyMenus)
}

// apologyMessage is the fixed degraded reply used whenever a stage cannot
// produce anything better.
const apologyMessage = "I'm sorry, I ran into a problem handling that. Could you try rephrasing, or pick one of the options below?"
