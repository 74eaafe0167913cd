package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciergedev/concierge/core"
)

func TestExtractAnswerFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"known field", `{"message":"the answer"}`, "the answer"},
		{"nested reply field", `{"response":{"message":"nested answer"}}`, "nested answer"},
		{"first non-empty string property", `{"note":"","text":"found me","other":2}`, "found me"},
		{"string inside nested object", `{"data":{"body":"inner"}}`, "inner"},
		{"raw text when not an object", "just plain prose", "just plain prose"},
		{"raw text when object has no strings", `{"a":1,"b":true}`, `{"a":1,"b":true}`},
		{"fenced json", "```json\n{\"message\":\"fenced\"}\n```", "fenced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAnswer(tt.raw))
		})
	}
}

func TestRenderFieldsRequired(t *testing.T) {
	entry := &core.CatalogEntry{
		Name:  "Virtual Machine",
		Price: 12,
		RequiredFields: []core.RequiredField{
			{ID: "region", Name: "Region", Example: "us-east-1"},
			{ID: "name", Name: "Instance name"},
		},
	}
	reply := renderFieldsRequired(entry)

	assert.Equal(t, core.WorkflowFieldsRequired, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "$12.00")
	assert.Contains(t, reply.Response.Message, "Region (e.g. us-east-1)")
	assert.Contains(t, reply.Response.Message, "Instance name")
	require.Len(t, reply.Response.RequiredFields, 2)
}

func TestRenderFieldsRequiredWithoutFields(t *testing.T) {
	reply := renderFieldsRequired(&core.CatalogEntry{Name: "Object Storage", Price: 3})
	assert.Contains(t, reply.Response.Message, "$3.00")
	assert.Empty(t, reply.Response.RequiredFields)
}

func TestHistoryIntentPattern(t *testing.T) {
	matching := []string{
		"how many questions have I asked",
		"How many questions did I ask you?",
		"what have i asked you so far",
		"show me my conversation history",
	}
	for _, msg := range matching {
		assert.True(t, historyIntent.MatchString(msg), "should match %q", msg)
	}

	nonMatching := []string{
		"deploy a virtual machine",
		"I have a question",
		"ask me anything",
	}
	for _, msg := range nonMatching {
		assert.False(t, historyIntent.MatchString(msg), "should not match %q", msg)
	}
}
