package testutil

import (
	"github.com/conciergedev/concierge/core"
)

// ConversationBuilder provides a fluent helper for constructing records in
// tests. Chain only the parts you need; sensible defaults are applied.
//
//	conv := NewConversationBuilder("u1").Context("azure").Human("hi").Assistant("hello").Build()
type ConversationBuilder struct {
	conv *core.Conversation
}

// NewConversationBuilder starts a builder for the given user with the
// default aws context.
func NewConversationBuilder(userID string) *ConversationBuilder {
	return &ConversationBuilder{conv: core.NewConversation(userID, "aws")}
}

// Context sets the provider scope (chainable).
func (b *ConversationBuilder) Context(c string) *ConversationBuilder {
	b.conv.Context = c
	return b
}

// Human appends a human turn (chainable).
func (b *ConversationBuilder) Human(content string) *ConversationBuilder {
	b.conv.AppendTurn(core.RoleHuman, content)
	return b
}

// Assistant appends an assistant turn (chainable).
func (b *ConversationBuilder) Assistant(content string) *ConversationBuilder {
	b.conv.AppendTurn(core.RoleAssistant, content)
	return b
}

// Cart sets the cart snapshot and recomputes its total (chainable).
func (b *ConversationBuilder) Cart(items ...core.CartItem) *ConversationBuilder {
	b.conv.Cart = core.CartSnapshot{Items: items}
	b.conv.Cart.Recalculate()
	return b
}

// GeneralChat sets the general-chat session flag (chainable).
func (b *ConversationBuilder) GeneralChat() *ConversationBuilder {
	b.conv.GeneralChat = true
	return b
}

// Build returns the constructed conversation.
func (b *ConversationBuilder) Build() *core.Conversation { return b.conv }

// SampleEntries returns a small catalog covering two contexts, useful for
// engine and menu tests.
func SampleEntries() []core.CatalogEntry {
	return []core.CatalogEntry{
		{ID: "vm-small", Name: "Virtual Machine", Description: "General purpose VM", Context: "aws",
			Price: 12, Available: true,
			RequiredFields: []core.RequiredField{
				{Type: "input", ID: "region", Name: "Region", ValueType: "string"},
				{Type: "input", ID: "instance_name", Name: "Instance name", ValueType: "string"},
			}},
		{ID: "obj-store", Name: "Object Storage", Context: "aws", Price: 3, Available: true},
		{ID: "aks", Name: "Kubernetes Cluster", Context: "azure", Price: 40, Available: true},
	}
}
