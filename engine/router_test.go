package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/internal/testutil"
)

func TestNormalizeMessage(t *testing.T) {
	assert.Equal(t, "hi", normalizeMessage("  Hi!  "))
	assert.Equal(t, "good morning", normalizeMessage("Good Morning?"))
	assert.Equal(t, "hello there", normalizeMessage("hello there"))
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"deploy a vm in aws", "aws"},
		{"switch to Azure please", "azure"},
		{"I want GCP.", "gcp"},
		{"use amazon for this", "aws"},
		{"the microsoft cloud", "azure"},
		{"put it on google cloud", "gcp"},
		{"deploy a vm", ""},
		{"my awesome app", ""}, // "aws" inside a word must not match
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectProvider(tt.msg), "message %q", tt.msg)
	}
}

func TestCanonicalProvider(t *testing.T) {
	assert.Equal(t, "aws", canonicalProvider(" AWS "))
	assert.Equal(t, "", canonicalProvider("digitalocean"))
	assert.Equal(t, "", canonicalProvider(""))
}

func TestGreetingIsTimeOfDayAware(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{8, "Good morning!"},
		{14, "Good afternoon!"},
		{21, "Good evening!"},
	}
	for _, tt := range tests {
		gen := testutil.NewScriptedGenerator()
		e, _ := newTestEngine(gen, func(o *Options) {
			o.Now = func() time.Time { return time.Date(2025, 3, 10, tt.hour, 0, 0, 0, time.UTC) }
		})
		reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hey"})
		require.NoError(t, err)
		assert.Contains(t, reply.Response.Message, tt.want, "hour %d", tt.hour)
	}
}

func TestRulePrecedenceGreetingBeforeSelection(t *testing.T) {
	// "good morning" is a greeting even though rules further down would
	// never see it; the table is evaluated strictly in order.
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "Good morning"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowGreeting, reply.Workflow)
}

func TestSelectionRequiresVerbAndToken(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"general","payload":{}}`,
		`{"message":"aws is a cloud provider"}`,
	)
	e, _ := newTestEngine(gen)

	// Token without a selection verb must not route.
	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "what is aws"})
	require.NoError(t, err)
	assert.NotEqual(t, core.WorkflowContextSelected, reply.Workflow)

	// But the mentioned token still wins context precedence.
	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "aws", conv.Context)
}

func TestListShortcutStripsProviderAndSingular(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)

	// Provider token inside the list phrase scopes the listing and is
	// stripped from the resource type.
	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "list aws buckets"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowListResources, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "assets-prod")

	// Singular form resolves to the seeded plural type.
	reply, err = e.Chat(context.Background(), ChatRequest{UserID: "u2", Message: "list my instance"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowListResources, reply.Workflow)
	assert.Zero(t, gen.Calls())
}

func TestRenderResourcesEmpty(t *testing.T) {
	msg := renderResources("aws", "instances", nil)
	assert.Contains(t, msg, "no instances")
	assert.Contains(t, msg, "AWS")
}

func TestRenderResources(t *testing.T) {
	msg := renderResources("aws", "instances", []core.Resource{
		{Name: "web-1", Region: "us-east-1", Status: "RUNNING"},
	})
	assert.Contains(t, msg, "web-1")
	assert.Contains(t, msg, "(us-east-1)")
	assert.Contains(t, msg, "[running]")
}
