package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/model"
)

// resolve classifies the current message into an action using one timed
// generation call. It never fails the turn: any transport error, timeout
// or unparseable output collapses to the general fallback carrying the raw
// message.
func (e *Engine) resolve(ctx context.Context, st *turnState) {
	callCtx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()

	req := model.Request{
		Instructions: classifyInstructions,
		Messages:     append(historyMessages(st.conv), model.UserMessage(st.req.Message)),
	}
	raw, err := e.generator.Generate(callCtx, req)
	if err != nil {
		e.logger.Warn("classification call failed, falling back to general", "user_id", st.req.UserID, "error", err)
		st.action = core.GeneralAction(st.req.Message)
		return
	}

	st.action = e.parseAction(raw, st.req.Message)

	// A context hint in the payload overrides the conversation's scope
	// from here on.
	if p := canonicalProvider(st.action.PayloadString("context")); p != "" {
		st.conv.Context = p
	}
}

// historyMessages maps the stored history onto alternating generator
// messages. Assistant contents are already plain strings; anything that
// still looks structured is passed through as its serialized text.
func historyMessages(conv *core.Conversation) []model.Message {
	msgs := make([]model.Message, 0, len(conv.History))
	for _, t := range conv.History {
		role := "user"
		if t.Role == core.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, model.Message{Role: role, Content: t.Content})
	}
	return msgs
}

// parseAction repairs classifier output into a member of the taxonomy.
// Fallback order: well-formed action JSON; a final-reply-shaped object
// (instruction-following drift), whose workflow label is mapped back onto
// an action type; otherwise the general fallback.
func (e *Engine) parseAction(raw, message string) core.Action {
	doc := gjson.Parse(extractJSON(raw))
	if !doc.IsObject() {
		e.logger.Debug("classifier output not an object, using general fallback")
		return core.GeneralAction(message)
	}

	if t := doc.Get("type"); t.Exists() && t.String() != "" {
		action := core.Action{Type: core.ParseActionType(t.String()), Payload: map[string]any{}}
		if payload := doc.Get("payload"); payload.IsObject() {
			if m, ok := payload.Value().(map[string]any); ok {
				action.Payload = m
			}
		}
		if _, ok := action.Payload["message"]; !ok {
			action.Payload["message"] = message
		}
		return action
	}

	// Degraded equivalence: the model answered with a final reply instead
	// of an action. Recover the action type from the workflow label and
	// lift any embedded hints so the turn can continue.
	if doc.Get("workflow").Exists() || doc.Get("role").Exists() || doc.Get("response").Exists() {
		action := core.Action{
			Type:    workflowToAction(doc.Get("workflow").String()),
			Payload: map[string]any{"message": message},
		}
		for _, key := range []string{"service", "context", "region"} {
			for _, path := range []string{key, "response." + key, "payload." + key} {
				if v := doc.Get(path); v.Exists() && v.String() != "" {
					action.Payload[key] = v.String()
					break
				}
			}
		}
		return action
	}

	return core.GeneralAction(message)
}

// workflowToAction maps reply workflow labels back onto action types for
// the degraded classification path.
func workflowToAction(workflow string) core.ActionType {
	switch strings.ToLower(strings.TrimSpace(workflow)) {
	case core.WorkflowGreeting, core.WorkflowGeneralChat, core.WorkflowGeneral, "":
		return core.ActionGeneral
	case core.WorkflowContextSelected:
		return core.ActionSelectContext
	case core.WorkflowListResources:
		return core.ActionListResources
	case core.WorkflowServiceInfo:
		return core.ActionClassify
	case core.WorkflowCart:
		return core.ActionView
	case core.WorkflowCartUpdated, core.WorkflowFieldsRequired, "deploy", "add-to-cart":
		return core.ActionAdd
	case core.WorkflowOrderProcessed:
		return core.ActionProcess
	case core.WorkflowCancelled:
		return core.ActionCancel
	case core.WorkflowOptions:
		return core.ActionViewOptions
	case core.WorkflowSummary:
		return core.ActionSummarize
	default:
		return core.ParseActionType(workflow)
	}
}

// extractJSON strips markdown fences and any prose around the first JSON
// object in generator output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if i := strings.LastIndex(raw, "```"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
	}
	if json.Valid([]byte(raw)) {
		return raw
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
