package core

import "strings"

// ActionType is the closed enumeration of intents the resolver can assign
// to a turn. Anything the classifier cannot place maps to ActionGeneral;
// an Action never carries a type outside this set.
type ActionType string

const (
	// ActionClassify asks for a description of a catalog entry; handled
	// entirely by the synthesizer.
	ActionClassify ActionType = "classify"
	// ActionView shows the current cart.
	ActionView ActionType = "view"
	// ActionAdd provisions/adds a catalog entry to the cart.
	ActionAdd ActionType = "add"
	// ActionRemove removes an item from the cart.
	ActionRemove ActionType = "remove"
	// ActionSetQuantity changes an item's quantity.
	ActionSetQuantity ActionType = "set-quantity"
	// ActionProcess places the order for the current cart.
	ActionProcess ActionType = "process"
	// ActionCancel resets the session without a domain call.
	ActionCancel ActionType = "cancel"
	// ActionListResources lists live resources for the active context.
	ActionListResources ActionType = "list-resources"
	// ActionSelectContext switches the active provider context.
	ActionSelectContext ActionType = "select-context"
	// ActionViewOptions shows the context-scoped option menu.
	ActionViewOptions ActionType = "view-options"
	// ActionSummarize reports how many questions the user has asked.
	ActionSummarize ActionType = "summarize"
	// ActionGeneral is the open-ended fallback answered by a second
	// generation call.
	ActionGeneral ActionType = "general"
)

// actionAliases maps classifier vocabulary variants onto canonical types.
var actionAliases = map[string]ActionType{
	"classify":       ActionClassify,
	"describe":       ActionClassify,
	"view":           ActionView,
	"view-cart":      ActionView,
	"add":            ActionAdd,
	"add-item":       ActionAdd,
	"deploy":         ActionAdd,
	"remove":         ActionRemove,
	"delete":         ActionRemove,
	"set-quantity":   ActionSetQuantity,
	"quantity":       ActionSetQuantity,
	"process":        ActionProcess,
	"checkout":       ActionProcess,
	"order":          ActionProcess,
	"cancel":         ActionCancel,
	"list-resources": ActionListResources,
	"list":           ActionListResources,
	"select-context": ActionSelectContext,
	"context":        ActionSelectContext,
	"view-options":   ActionViewOptions,
	"options":        ActionViewOptions,
	"summarize":      ActionSummarize,
	"summary":        ActionSummarize,
	"general":        ActionGeneral,
	"chat":           ActionGeneral,
}

// ParseActionType normalizes a classifier-emitted type string to a member
// of the enumeration. Unknown or empty input yields ActionGeneral.
func ParseActionType(s string) ActionType {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	if t, ok := actionAliases[key]; ok {
		return t
	}
	return ActionGeneral
}

// Action is the classified intent for a turn plus the extracted payload.
// Payload keys are interpreted per type (service, item, quantity, context,
// region, message, count).
type Action struct {
	Type    ActionType     `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// GeneralAction builds the fallback action carrying the raw user message.
func GeneralAction(message string) Action {
	return Action{Type: ActionGeneral, Payload: map[string]any{"message": message}}
}

// PayloadString returns the payload value for key if it is a non-empty
// string.
func (a Action) PayloadString(key string) string {
	if a.Payload == nil {
		return ""
	}
	if s, ok := a.Payload[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// PayloadInt returns the payload value for key as an int, accepting the
// float64 shape JSON decoding produces.
func (a Action) PayloadInt(key string) (int, bool) {
	if a.Payload == nil {
		return 0, false
	}
	switch v := a.Payload[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
