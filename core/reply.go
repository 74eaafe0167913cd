package core

// Workflow labels attached to replies. The resolver also uses them in
// reverse: when the classifier answers with a final-reply shape instead of
// an action, the workflow label is mapped back onto an action type.
const (
	WorkflowGreeting        = "greeting"
	WorkflowContextSelected = "context-selected"
	WorkflowGeneralChat     = "general-chat"
	WorkflowListResources   = "list-resources"
	WorkflowServiceInfo     = "service-info"
	WorkflowCart            = "cart"
	WorkflowCartUpdated     = "cart-updated"
	WorkflowCartFailed      = "cart-failed"
	WorkflowFieldsRequired  = "fields-required"
	WorkflowOrderProcessed  = "order-processed"
	WorkflowOrderFailed     = "order-failed"
	WorkflowCancelled       = "cancelled"
	WorkflowOptions         = "options"
	WorkflowSummary         = "summary"
	WorkflowGeneral         = "general"
)

// ReplyBody is the variant-carrying payload of a reply. Message and Menu
// are always present; the remaining fields are populated per workflow.
type ReplyBody struct {
	Message        string          `json:"message"`
	Menu           []string        `json:"menu"`
	Questions      []string        `json:"questions,omitempty"`
	QuestionCount  *int            `json:"question_count,omitempty"`
	Resources      []Resource      `json:"resources,omitempty"`
	RequiredFields []RequiredField `json:"required_fields,omitempty"`
	Cart           *CartSnapshot   `json:"cart,omitempty"`
}

// Reply is the structured assistant response returned for every turn.
type Reply struct {
	Role     string    `json:"role"`
	Workflow string    `json:"workflow"`
	Response ReplyBody `json:"response"`
}

// NewReply builds an assistant reply with the given workflow label and
// message body. The menu is attached at the end of the turn.
func NewReply(workflow, message string) *Reply {
	return &Reply{Role: "assistant", Workflow: workflow, Response: ReplyBody{Message: message}}
}
