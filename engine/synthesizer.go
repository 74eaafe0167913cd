package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/model"
)

// historyIntent catches question-history phrasing the classifier tends to
// miss; it forces a single re-classification to summarize.
var historyIntent = regexp.MustCompile(`(?i)how many questions|questions (have|did) i ask|what have i asked( you)?|my (question|conversation) history`)

// synthesize produces the final reply. Decision order:
//  1. history-intent correction (one bounded executor re-entry),
//  2. structured summary pass-through,
//  3. deterministic executor message,
//  4. fields-required rendering for a catalog match,
//  5. open-ended generation call with fallback extraction.
//
// The menu is attached later by finishTurn, after every path.
func (e *Engine) synthesize(ctx context.Context, st *turnState) {
	if historyIntent.MatchString(st.req.Message) && st.action.Type != core.ActionSummarize && !st.resummarized {
		st.resummarized = true
		st.action = core.Action{Type: core.ActionSummarize, Payload: map[string]any{"message": st.req.Message}}
		st.result = turnResult{}
		e.execute(ctx, st)
	}

	if st.result.questionCount != nil {
		count := *st.result.questionCount
		reply := core.NewReply(core.WorkflowSummary,
			fmt.Sprintf("You've asked me %d question(s) so far.", count))
		reply.Response.Questions = st.result.questions
		reply.Response.QuestionCount = st.result.questionCount
		st.reply = reply
		return
	}

	if st.result.message != "" {
		workflow := st.result.workflow
		if workflow == "" {
			workflow = core.WorkflowGeneral
		}
		reply := core.NewReply(workflow, st.result.message)
		reply.Response.Resources = st.result.resources
		reply.Response.Cart = st.result.cart
		st.reply = reply
		return
	}

	if st.result.match != nil {
		st.reply = renderFieldsRequired(st.result.match)
		return
	}

	st.reply = e.answer(ctx, st)
}

// renderFieldsRequired builds the deterministic "please provide these
// fields" reply for a matched catalog entry.
func renderFieldsRequired(entry *core.CatalogEntry) *core.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s costs $%.2f.", entry.Name, entry.Price)
	if len(entry.RequiredFields) == 0 {
		sb.WriteString(" Say \"process my order\" once it's in your cart, or send the form to add it.")
	} else {
		sb.WriteString(" To set it up I need:")
		for _, f := range entry.RequiredFields {
			fmt.Fprintf(&sb, "\n- %s", f.Name)
			if f.Example != "" {
				fmt.Fprintf(&sb, " (e.g. %s)", f.Example)
			}
		}
	}
	reply := core.NewReply(core.WorkflowFieldsRequired, sb.String())
	reply.Response.RequiredFields = entry.RequiredFields
	return reply
}

// answer issues the open-ended second generation call and extracts the
// reply text.
func (e *Engine) answer(ctx context.Context, st *turnState) *core.Reply {
	callCtx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()

	summary := situationSummary(st.conv, e.catalog.Names(st.conv.Context))
	messages := append(historyMessages(st.conv),
		model.UserMessage(fmt.Sprintf("Situation:\n%s\nUser message: %s", summary, st.req.Message)))

	raw, err := e.generator.Generate(callCtx, model.Request{Instructions: answerInstructions, Messages: messages})
	if err != nil {
		e.logger.Warn("answer call failed, using fixed apology", "user_id", st.req.UserID, "error", err)
		return core.NewReply(core.WorkflowGeneral, apologyMessage)
	}

	workflow := core.WorkflowGeneral
	if st.action.Type == core.ActionClassify {
		workflow = core.WorkflowServiceInfo
	}
	return core.NewReply(workflow, extractAnswer(raw))
}

// extractAnswer pulls the reply text out of generator output. Fallback
// chain, in order: the "message" field, a nested "response.message", the
// first non-empty string property anywhere in the object, the raw text.
func extractAnswer(raw string) string {
	text := extractJSON(raw)
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return strings.TrimSpace(raw)
	}

	if v := doc.Get("message"); v.Type == gjson.String && v.String() != "" {
		return v.String()
	}
	if v := doc.Get("response.message"); v.Type == gjson.String && v.String() != "" {
		return v.String()
	}

	var found string
	doc.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String && strings.TrimSpace(value.String()) != "":
			found = value.String()
			return false
		case value.IsObject():
			value.ForEach(func(_, inner gjson.Result) bool {
				if inner.Type == gjson.String && strings.TrimSpace(inner.String()) != "" {
					found = inner.String()
					return false
				}
				return true
			})
			return found == ""
		}
		return true
	})
	if found != "" {
		return found
	}
	return strings.TrimSpace(raw)
}
