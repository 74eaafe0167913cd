package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/model"
)

// Fixed user-facing messages for domain-service failures.
const (
	cartApology  = "I'm sorry, I couldn't update your cart just now. Nothing was changed; please try again."
	orderApology = "I'm sorry, I couldn't process your order. Your cart is untouched; please try again in a moment."
)

// execute dispatches on the resolved action type. Each branch writes into
// the shared result object instead of returning early so a message, an
// event tag and state changes can coexist. No branch throws: domain-service
// failures set a failure event plus a fixed apology.
func (e *Engine) execute(ctx context.Context, st *turnState) {
	switch st.action.Type {
	case core.ActionClassify:
		// Deferred entirely to the synthesizer's open-ended call.

	case core.ActionAdd:
		e.executeAdd(ctx, st)

	case core.ActionView:
		e.executeView(ctx, st)

	case core.ActionRemove:
		e.executeRemove(ctx, st)

	case core.ActionSetQuantity:
		e.executeSetQuantity(ctx, st)

	case core.ActionProcess:
		e.executeProcess(ctx, st)

	case core.ActionCancel:
		st.conv.ResetTransient()
		st.result.event = eventCancelled
		st.result.workflow = core.WorkflowCancelled
		st.result.message = "No problem, I've reset everything. Your cart is empty and we're starting fresh."

	case core.ActionListResources:
		e.executeListResources(ctx, st)

	case core.ActionSelectContext:
		e.executeSelectContext(st)

	case core.ActionViewOptions:
		st.result.event = eventOptions
		st.result.workflow = core.WorkflowOptions
		st.result.message = fmt.Sprintf("Here's what I can do for you on %s:", strings.ToUpper(st.conv.Context))

	case core.ActionSummarize:
		e.executeSummarize(st)

	case core.ActionGeneral:
		// Answered by the synthesizer's open-ended call.

	default:
		// Unmatched types are a no-op; the synthesizer falls through to
		// the open-ended call.
	}
}

// executeAdd resolves the named entity against the catalog scoped to the
// active context. With a field submission the item goes straight into the
// cart; otherwise a hit defers to the fields-required rendering and a miss
// lists what is available.
func (e *Engine) executeAdd(ctx context.Context, st *turnState) {
	query := firstNonEmpty(
		st.action.PayloadString("service"),
		st.action.PayloadString("item"),
		st.action.PayloadString("name"),
	)
	if query == "" {
		query = st.req.Message
	}
	if st.req.Fields != nil {
		// A submission names its entry explicitly or falls back to the
		// selection the previous turn left pending.
		query = firstNonEmpty(st.req.Fields.Template, st.conv.PendingSelection, query)
	}

	entry, ok := e.catalog.Find(st.conv.Context, query)
	if !ok {
		st.result.event = eventCatalogMiss
		st.result.available = e.catalog.Names(st.conv.Context)
		st.result.message = renderCatalogMiss(st.conv.Context, st.result.available)
		return
	}

	if st.req.Fields != nil {
		e.addToCart(ctx, st, entry, st.req.Fields.FormData)
		return
	}

	// Matched but not yet configured: remember the selection, enrich the
	// required fields with example values and let the synthesizer render
	// the field prompt.
	st.conv.PendingSelection = entry.ID
	entry.RequiredFields = e.enrichFields(ctx, entry)
	st.result.event = eventCatalogMatch
	st.result.match = &entry
}

func (e *Engine) addToCart(ctx context.Context, st *turnState, entry core.CatalogEntry, fields map[string]string) {
	if _, err := e.deployer.Deploy(ctx, st.req.UserID, entry, fields); err != nil {
		// The stub never fails today, but a real deployer can.
		e.logger.Warn("deploy request failed", "entry", entry.ID, "error", err)
	}
	item := core.CartItem{EntryID: entry.ID, Name: entry.Name, Price: entry.Price, Quantity: 1, Fields: fields}
	snapshot, err := e.carts.AddItem(ctx, st.req.UserID, item)
	if err != nil {
		e.logger.Warn("cart add failed", "user_id", st.req.UserID, "entry", entry.ID, "error", err)
		st.result.event = eventCartFailed
		st.result.workflow = core.WorkflowCartFailed
		st.result.message = cartApology
		return
	}
	st.conv.Cart = snapshot
	st.conv.PendingSelection = ""
	st.result.event = eventCartUpdated
	st.result.workflow = core.WorkflowCartUpdated
	st.result.cart = &snapshot
	st.result.message = fmt.Sprintf("Added %s to your cart. Your total is now $%.2f.", entry.Name, snapshot.Total)
}

// enrichFields asks the generator for example values. Independently
// fallback-safe: on any failure the fields come back with empty examples.
func (e *Engine) enrichFields(ctx context.Context, entry core.CatalogEntry) []core.RequiredField {
	fields := make([]core.RequiredField, len(entry.RequiredFields))
	copy(fields, entry.RequiredFields)
	if len(fields) == 0 {
		return fields
	}

	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	callCtx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()
	raw, err := e.generator.Generate(callCtx, model.Request{
		Instructions: enrichInstructions,
		Messages: []model.Message{model.UserMessage(fmt.Sprintf(
			"Service: %s. Fields: %s.", entry.Name, strings.Join(ids, ", ")))},
	})
	if err != nil {
		e.logger.Debug("field enrichment failed, defaulting to empty examples", "entry", entry.ID, "error", err)
		return fields
	}
	doc := gjson.Parse(extractJSON(raw))
	if !doc.IsObject() {
		return fields
	}
	for i := range fields {
		if v := doc.Get(fields[i].ID); v.Exists() {
			fields[i].Example = v.String()
		}
	}
	return fields
}

func (e *Engine) executeView(ctx context.Context, st *turnState) {
	snapshot, err := e.carts.Get(ctx, st.req.UserID)
	if err != nil {
		e.logger.Warn("cart read failed, using cached snapshot", "user_id", st.req.UserID, "error", err)
		snapshot = st.conv.Cart
	} else {
		st.conv.Cart = snapshot
	}
	st.result.event = eventCartUpdated
	st.result.workflow = core.WorkflowCart
	st.result.cart = &snapshot
	st.result.message = renderCart(snapshot)
}

func (e *Engine) executeRemove(ctx context.Context, st *turnState) {
	itemID := firstNonEmpty(st.action.PayloadString("item"), st.action.PayloadString("id"), st.action.PayloadString("service"))
	if itemID == "" {
		st.result.event = eventCartFailed
		st.result.workflow = core.WorkflowCartFailed
		st.result.message = cartApology
		return
	}
	itemID = e.resolveCartItem(st.conv, itemID)
	snapshot, err := e.carts.RemoveItem(ctx, st.req.UserID, itemID)
	if err != nil {
		e.logger.Warn("cart remove failed", "user_id", st.req.UserID, "item", itemID, "error", err)
		st.result.event = eventCartFailed
		st.result.workflow = core.WorkflowCartFailed
		st.result.message = cartApology
		return
	}
	st.conv.Cart = snapshot
	st.result.event = eventCartUpdated
	st.result.workflow = core.WorkflowCartUpdated
	st.result.cart = &snapshot
	st.result.message = fmt.Sprintf("Done, I removed it. Your total is now $%.2f.", snapshot.Total)
}

func (e *Engine) executeSetQuantity(ctx context.Context, st *turnState) {
	itemID := firstNonEmpty(st.action.PayloadString("item"), st.action.PayloadString("id"), st.action.PayloadString("service"))
	quantity, ok := st.action.PayloadInt("quantity")
	if itemID == "" || !ok {
		st.result.event = eventCartFailed
		st.result.workflow = core.WorkflowCartFailed
		st.result.message = cartApology
		return
	}
	itemID = e.resolveCartItem(st.conv, itemID)
	snapshot, err := e.carts.SetQuantity(ctx, st.req.UserID, itemID, quantity)
	if err != nil {
		e.logger.Warn("cart quantity update failed", "user_id", st.req.UserID, "item", itemID, "error", err)
		st.result.event = eventCartFailed
		st.result.workflow = core.WorkflowCartFailed
		st.result.message = cartApology
		return
	}
	st.conv.Cart = snapshot
	st.result.event = eventCartUpdated
	st.result.workflow = core.WorkflowCartUpdated
	st.result.cart = &snapshot
	st.result.message = fmt.Sprintf("Updated the quantity to %d. Your total is now $%.2f.", quantity, snapshot.Total)
}

// resolveCartItem maps a human name from the payload onto a cart item id
// using the cached snapshot; unknown names pass through unchanged so the
// cart service reports the failure.
func (e *Engine) resolveCartItem(conv *core.Conversation, nameOrID string) string {
	needle := strings.ToLower(strings.TrimSpace(nameOrID))
	for _, it := range conv.Cart.Items {
		if it.ID == nameOrID || it.EntryID == nameOrID || strings.ToLower(it.Name) == needle {
			return it.ID
		}
	}
	for _, it := range conv.Cart.Items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			return it.ID
		}
	}
	return nameOrID
}

func (e *Engine) executeProcess(ctx context.Context, st *turnState) {
	snapshot, err := e.carts.Get(ctx, st.req.UserID)
	if err != nil {
		snapshot = st.conv.Cart
	}
	order, err := e.orders.Create(ctx, st.req.UserID, snapshot)
	if err != nil {
		e.logger.Warn("order creation failed", "user_id", st.req.UserID, "error", err)
		st.result.event = eventOrderFailed
		st.result.workflow = core.WorkflowOrderFailed
		st.result.message = orderApology
		return
	}
	if err := e.carts.Clear(ctx, st.req.UserID); err != nil {
		e.logger.Warn("cart clear after order failed", "user_id", st.req.UserID, "error", err)
	}
	st.conv.ResetTransient()
	st.result.event = eventOrderCreated
	st.result.workflow = core.WorkflowOrderProcessed
	st.result.message = fmt.Sprintf("Your order is in! Order %s for $%.2f is being provisioned. I've cleared your cart.", order.ID, order.Total)
}

// executeListResources delegates to the lister only for combinations it is
// defined for. Unsupported combinations fall through silently; the
// synthesizer handles the empty result.
func (e *Engine) executeListResources(ctx context.Context, st *turnState) {
	resourceType := strings.ToLower(firstNonEmpty(
		st.action.PayloadString("resource"),
		st.action.PayloadString("type"),
	))
	resourceType = strings.ReplaceAll(strings.TrimSpace(resourceType), " ", "-")
	if resourceType != "" && !e.resources.Supports(st.conv.Context, resourceType) && e.resources.Supports(st.conv.Context, resourceType+"s") {
		resourceType += "s"
	}
	if resourceType == "" || !e.resources.Supports(st.conv.Context, resourceType) {
		return
	}
	resources, err := e.resources.List(ctx, st.conv.Context, resourceType)
	if err != nil {
		e.logger.Warn("resource listing failed", "context", st.conv.Context, "type", resourceType, "error", err)
		st.result.event = eventResources
		st.result.workflow = core.WorkflowListResources
		st.result.message = apologyMessage
		return
	}
	st.result.event = eventResources
	st.result.workflow = core.WorkflowListResources
	st.result.resources = resources
	st.result.message = renderResources(st.conv.Context, resourceType, resources)
}

func (e *Engine) executeSelectContext(st *turnState) {
	if p := canonicalProvider(st.action.PayloadString("context")); p != "" {
		st.conv.Context = p
	}
	st.result.event = eventContextSelected
	st.result.workflow = core.WorkflowContextSelected
	st.result.message = fmt.Sprintf("You're now working with %s. Everything I suggest from here on is scoped to it.",
		strings.ToUpper(st.conv.Context))
}

// executeSummarize prefers a count carried in the payload; otherwise it
// counts the distinct human turns already in the history (the current
// message has not been appended yet).
func (e *Engine) executeSummarize(st *turnState) {
	questions := st.conv.PriorQuestions()
	count := len(questions)
	if n, ok := st.action.PayloadInt("count"); ok {
		count = n
	}
	st.result.event = eventSummary
	st.result.workflow = core.WorkflowSummary
	st.result.questions = questions
	st.result.questionCount = &count
}

func renderCart(cart core.CartSnapshot) string {
	if len(cart.Items) == 0 {
		return "Your cart is empty. Pick a service below to get started."
	}
	var sb strings.Builder
	sb.WriteString("Here's your cart:")
	for _, it := range cart.Items {
		fmt.Fprintf(&sb, "\n- %s x%d ($%.2f each)", it.Name, it.Quantity, it.Price)
	}
	fmt.Fprintf(&sb, "\nTotal: $%.2f", cart.Total)
	return sb.String()
}

func renderCatalogMiss(contextName string, available []string) string {
	if len(available) == 0 {
		return fmt.Sprintf("I couldn't find that service, and %s has nothing available right now. Try switching provider.",
			strings.ToUpper(contextName))
	}
	return fmt.Sprintf("I couldn't find that service on %s. Here's what's available: %s.",
		strings.ToUpper(contextName), strings.Join(available, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
