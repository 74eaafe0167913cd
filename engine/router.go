package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/conciergedev/concierge/core"
)

// The router short-circuits the pipeline for messages it can answer
// deterministically, before any generation call happens. Rules are
// evaluated in order and are mutually exclusive; the first match wins and
// terminates the turn.

// greetingTokens is the closed set of whole-message greetings.
var greetingTokens = map[string]bool{
	"hi":             true,
	"hello":          true,
	"hey":            true,
	"yo":             true,
	"hola":           true,
	"greetings":      true,
	"good morning":   true,
	"good afternoon": true,
	"good evening":   true,
	"howdy":          true,
}

var (
	// selectionVerbs marks an explicit provider choice ("use aws",
	// "switch to azure").
	selectionVerbs = regexp.MustCompile(`(?i)\b(select|choose|switch|use|set|pick|change)\b`)
	// chatIntent matches requests to enter free-form chat mode.
	chatIntent = regexp.MustCompile(`(?i)^(let'?s\s+|just\s+|can\s+we\s+)?(chat|talk)(\s+mode)?\s*[.!?]*$|\bgeneral\s+chat\b|\bchat\s+mode\b`)
	// listPrefix matches a direct "list <resource type>" shortcut.
	listPrefix = regexp.MustCompile(`(?i)^list\s+(?:my\s+|all\s+)?([a-z -]+?)\s*$`)
)

// routeRule pairs a predicate with its handler. The handler produces the
// complete reply body; the router takes care of history and persistence.
type routeRule struct {
	name   string
	match  func(st *turnState) bool
	handle func(ctx context.Context, st *turnState) *core.Reply
}

func (e *Engine) routeRules() []routeRule {
	return []routeRule{
		{
			name:   "greeting",
			match:  func(st *turnState) bool { return greetingTokens[normalizeMessage(st.req.Message)] },
			handle: e.handleGreeting,
		},
		{
			name: "context-selection",
			match: func(st *turnState) bool {
				return detectProvider(st.req.Message) != "" && selectionVerbs.MatchString(st.req.Message)
			},
			handle: e.handleContextSelection,
		},
		{
			name:   "general-chat",
			match:  func(st *turnState) bool { return chatIntent.MatchString(strings.TrimSpace(st.req.Message)) },
			handle: e.handleChatToggle,
		},
		{
			name:   "list-shortcut",
			match:  e.matchListShortcut,
			handle: e.handleListShortcut,
		},
	}
}

// route evaluates the rule table once. A non-nil reply means the turn was
// handled and persisted; the caller returns it as-is.
func (e *Engine) route(ctx context.Context, st *turnState) *core.Reply {
	for _, rule := range e.rules {
		if !rule.match(st) {
			continue
		}
		e.logger.Debug("router matched", "rule", rule.name, "user_id", st.req.UserID)
		st.reply = rule.handle(ctx, st)
		return e.finishTurn(ctx, st)
	}
	return nil
}

func (e *Engine) handleGreeting(_ context.Context, st *turnState) *core.Reply {
	hour := e.now().Hour()
	var salutation string
	switch {
	case hour < 12:
		salutation = "Good morning!"
	case hour < 18:
		salutation = "Good afternoon!"
	default:
		salutation = "Good evening!"
	}
	msg := fmt.Sprintf("%s I can help you provision services on %s, manage your cart and answer questions. Here's what you can do:",
		salutation, strings.ToUpper(st.conv.Context))
	return core.NewReply(core.WorkflowGreeting, msg)
}

func (e *Engine) handleContextSelection(_ context.Context, st *turnState) *core.Reply {
	provider := detectProvider(st.req.Message)
	st.conv.Context = provider
	msg := fmt.Sprintf("You're now working with %s. Everything I suggest from here on is scoped to it.", strings.ToUpper(provider))
	return core.NewReply(core.WorkflowContextSelected, msg)
}

func (e *Engine) handleChatToggle(_ context.Context, st *turnState) *core.Reply {
	st.conv.GeneralChat = true
	return core.NewReply(core.WorkflowGeneralChat,
		"Sure, let's just chat. Ask me anything; say \"cancel\" whenever you want to get back to ordering.")
}

// matchListShortcut fires only when the message starts with "list" and
// names a resource type the lister is defined for in the active context.
func (e *Engine) matchListShortcut(st *turnState) bool {
	return e.listShortcutType(st) != ""
}

func (e *Engine) listShortcutType(st *turnState) string {
	m := listPrefix.FindStringSubmatch(strings.TrimSpace(st.req.Message))
	if m == nil {
		return ""
	}
	candidate := strings.TrimSpace(strings.ToLower(m[1]))
	// Drop a leading provider token: "list aws instances".
	for _, p := range Providers {
		candidate = strings.TrimSpace(strings.TrimPrefix(candidate, p+" "))
	}
	candidate = strings.ReplaceAll(candidate, " ", "-")
	for _, form := range []string{candidate, candidate + "s"} {
		if e.resources.Supports(st.conv.Context, form) {
			return form
		}
	}
	return ""
}

func (e *Engine) handleListShortcut(ctx context.Context, st *turnState) *core.Reply {
	resourceType := e.listShortcutType(st)
	resources, err := e.resources.List(ctx, st.conv.Context, resourceType)
	if err != nil {
		e.logger.Warn("resource listing failed", "context", st.conv.Context, "type", resourceType, "error", err)
		return core.NewReply(core.WorkflowListResources, apologyMessage)
	}
	reply := core.NewReply(core.WorkflowListResources, renderResources(st.conv.Context, resourceType, resources))
	reply.Response.Resources = resources
	return reply
}

// renderResources builds the deterministic listing message.
func renderResources(contextName, resourceType string, resources []core.Resource) string {
	if len(resources) == 0 {
		return fmt.Sprintf("You have no %s in %s right now.", resourceType, strings.ToUpper(contextName))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are your %s in %s:", resourceType, strings.ToUpper(contextName))
	for _, r := range resources {
		sb.WriteString("\n- ")
		sb.WriteString(r.Name)
		if r.Region != "" {
			fmt.Fprintf(&sb, " (%s)", r.Region)
		}
		if r.Status != "" {
			fmt.Fprintf(&sb, " [%s]", strings.ToLower(r.Status))
		}
	}
	return sb.String()
}

// normalizeMessage lowercases and strips surrounding space and trailing
// punctuation for whole-message matching.
func normalizeMessage(msg string) string {
	msg = strings.ToLower(strings.TrimSpace(msg))
	return strings.TrimRight(msg, "!.? ")
}

// detectProvider returns the canonical provider named in the message, or
// empty.
func detectProvider(msg string) string {
	lower := " " + strings.ToLower(msg) + " "
	for _, p := range Providers {
		if strings.Contains(lower, " "+p+" ") || strings.Contains(lower, " "+p+".") || strings.Contains(lower, " "+p+",") {
			return p
		}
	}
	// Common aliases.
	switch {
	case strings.Contains(lower, "amazon"):
		return "aws"
	case strings.Contains(lower, "microsoft"):
		return "azure"
	case strings.Contains(lower, "google cloud"):
		return "gcp"
	}
	return ""
}

// canonicalProvider validates a caller-supplied context value.
func canonicalProvider(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Providers {
		if s == p {
			return p
		}
	}
	return ""
}
