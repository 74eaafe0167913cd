package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationAppendTurn(t *testing.T) {
	conv := NewConversation("u1", "aws")
	conv.AppendTurn(RoleHuman, "hello")
	conv.AppendTurn(RoleAssistant, "hi there")

	require.Len(t, conv.History, 2)
	assert.Equal(t, RoleHuman, conv.History[0].Role)
	assert.Equal(t, "hello", conv.History[0].Content)
	assert.Equal(t, RoleAssistant, conv.History[1].Role)
	assert.False(t, conv.History[1].Timestamp.IsZero())
}

func TestConversationPriorQuestions(t *testing.T) {
	conv := NewConversation("u1", "aws")
	conv.AppendTurn(RoleHuman, "what is a vm")
	conv.AppendTurn(RoleAssistant, "a virtual machine")
	conv.AppendTurn(RoleHuman, "what is a vm") // duplicate, counted once
	conv.AppendTurn(RoleAssistant, "still a virtual machine")
	conv.AppendTurn(RoleHuman, "how much does it cost")

	qs := conv.PriorQuestions()
	assert.Equal(t, []string{"what is a vm", "how much does it cost"}, qs)
}

func TestConversationResetTransient(t *testing.T) {
	conv := NewConversation("u1", "azure")
	conv.GeneralChat = true
	conv.PendingSelection = "database"
	conv.Cart = CartSnapshot{Items: []CartItem{{ID: "i1", Price: 5, Quantity: 2}}}
	conv.Cart.Recalculate()
	conv.AppendTurn(RoleHuman, "cancel")

	conv.ResetTransient()

	assert.False(t, conv.GeneralChat)
	assert.Empty(t, conv.PendingSelection)
	assert.Empty(t, conv.Cart.Items)
	assert.Zero(t, conv.Cart.Total)
	assert.Equal(t, "azure", conv.Context, "context survives a reset")
	assert.Len(t, conv.History, 1, "history survives a reset")
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation("u1", "aws")
	conv.AppendTurn(RoleHuman, "hi")
	conv.Cart = CartSnapshot{Items: []CartItem{{ID: "i1", Fields: map[string]string{"region": "us-east-1"}}}}

	clone := conv.Clone()
	clone.AppendTurn(RoleAssistant, "hello")
	clone.Cart.Items[0].Fields["region"] = "eu-west-1"

	assert.Len(t, conv.History, 1)
	assert.Equal(t, "us-east-1", conv.Cart.Items[0].Fields["region"])
}

func TestCartSnapshotRecalculate(t *testing.T) {
	s := CartSnapshot{Items: []CartItem{
		{Price: 10, Quantity: 2},
		{Price: 3.5, Quantity: 1},
	}}
	s.Recalculate()
	assert.InDelta(t, 23.5, s.Total, 1e-9)
}
