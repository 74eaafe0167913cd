package engine

import (
	"fmt"
	"strings"

	"github.com/conciergedev/concierge/core"
)

// classifyInstructions is the system instruction for the classification
// call. It enumerates the closed taxonomy and pins the response shape; the
// resolver still repairs output that drifts from it.
const classifyInstructions = `You classify the user's latest message into exactly one action.

Valid action types:
- classify: the user asks what a service is or for details about one
- view: the user wants to see their cart
- add: the user wants to deploy or order a service ("deploy a virtual machine")
- remove: the user wants an item taken out of the cart
- set-quantity: the user wants to change an item's quantity
- process: the user wants to place/complete the order
- cancel: the user wants to abort and reset
- list-resources: the user wants their existing cloud resources listed
- select-context: the user wants to switch cloud provider
- view-options: the user asks what they can do
- summarize: the user asks about their question history
- general: anything else

Respond with ONLY a JSON object, no prose, shaped exactly like:
{"type": "<action type>", "payload": {"service": "...", "item": "...", "quantity": 1, "context": "...", "region": "...", "resource": "..."}}

Include only the payload keys the message supports. If the user names a
cloud provider (aws, azure, gcp) set payload.context to it.`

// answerInstructions is the system instruction for the open-ended second
// call.
const answerInstructions = `You are Concierge, a friendly assistant that helps users provision
cloud services, manage a shopping cart of services and answer questions.
Answer the user's message helpfully and concisely using the situation
summary provided. Respond with ONLY a JSON object shaped like:
{"message": "<your answer>"}`

// enrichInstructions asks for example values for an entry's required
// fields.
const enrichInstructions = `You produce realistic example values for service configuration fields.
Respond with ONLY a JSON object mapping each field id to one example value,
e.g. {"region": "us-east-1", "instance_name": "web-server-01"}.`

// situationSummary renders the context block for the open-ended call.
func situationSummary(conv *core.Conversation, names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Active provider: %s\n", strings.ToUpper(conv.Context))
	if len(names) > 0 {
		fmt.Fprintf(&sb, "Services available on this provider: %s\n", strings.Join(names, ", "))
	}
	if len(conv.Cart.Items) > 0 {
		fmt.Fprintf(&sb, "Cart: %d item(s), total $%.2f\n", len(conv.Cart.Items), conv.Cart.Total)
	} else {
		sb.WriteString("Cart: empty\n")
	}
	if conv.GeneralChat {
		sb.WriteString("Mode: general chat\n")
	}
	return sb.String()
}
