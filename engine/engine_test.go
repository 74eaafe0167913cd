package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciergedev/concierge/catalog"
	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/internal/testutil"
	"github.com/conciergedev/concierge/store"
)

// fixedMorning keeps the time-of-day greeting deterministic.
var fixedMorning = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestEngine(gen *testutil.ScriptedGenerator, optFns ...func(o *Options)) (*Engine, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	all := append([]func(o *Options){func(o *Options) {
		o.Store = st
		o.Now = func() time.Time { return fixedMorning }
		o.GenerationTimeout = time.Second
	}}, optFns...)
	return New(gen, catalog.New(testutil.SampleEntries()), all...), st
}

func TestChatRejectsMissingUserID(t *testing.T) {
	e, _ := newTestEngine(testutil.NewScriptedGenerator())
	_, err := e.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, core.ErrMissingUserID)
}

func TestGreetingBypassesClassification(t *testing.T) {
	gen := testutil.NewScriptedGenerator() // any call would error
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowGreeting, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "Good morning")
	assert.NotEmpty(t, reply.Response.Menu)
	assert.Zero(t, gen.Calls(), "no generation call may happen on the router path")

	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, conv.History, 2)
}

func TestGreetingTokensWholeMessageOnly(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"general","payload":{}}`,
		`{"message":"hi is a greeting, yes"}`,
	)
	e, _ := newTestEngine(gen)

	// "hi" embedded in a longer message must not trigger the greeting rule.
	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hi, what is a virtual machine?"})
	require.NoError(t, err)
	assert.NotEqual(t, core.WorkflowGreeting, reply.Workflow)
	assert.Equal(t, 2, gen.Calls())
}

func TestExplicitContextSelectionRoute(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "please switch to azure"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowContextSelected, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "AZURE")
	assert.Zero(t, gen.Calls())

	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "azure", conv.Context)

	// The menu is scoped to the new context.
	assert.Contains(t, reply.Response.Menu, "Deploy a kubernetes cluster on AZURE")
}

func TestGeneralChatToggleRoute(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "let's chat"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowGeneralChat, reply.Workflow)
	assert.Zero(t, gen.Calls())

	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, conv.GeneralChat)
}

func TestListShortcutRoute(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "list instances"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowListResources, reply.Workflow)
	assert.NotEmpty(t, reply.Response.Resources)
	assert.Contains(t, reply.Response.Message, "web-1")
	assert.Zero(t, gen.Calls(), "the shortcut bypasses classification")
}

func TestListShortcutUnsupportedTypeFallsThrough(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"general","payload":{}}`,
		`{"message":"I can't list those here."}`,
	)
	e, _ := newTestEngine(gen)

	// "clusters" is not seeded for aws, so the router must not fire.
	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "list clusters"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowGeneral, reply.Workflow)
	assert.Equal(t, 2, gen.Calls())
}

func TestMalformedClassificationFallsBackToGeneral(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		"certainly! the user wants to deploy something",
		`{"message":"Happy to help with deployments."}`,
	)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "do the thing"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowGeneral, reply.Workflow)
	assert.Equal(t, "Happy to help with deployments.", reply.Response.Message)
	assert.NotEmpty(t, reply.Response.Menu)
}

func TestGenerationErrorDegradesToApology(t *testing.T) {
	gen := testutil.NewScriptedGenerator() // classification errors, answer errors
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "tell me a story"})
	require.NoError(t, err, "generation failures never surface to the caller")
	assert.Equal(t, apologyMessage, reply.Response.Message)
	assert.NotEmpty(t, reply.Response.Menu)
}

func TestDeployMatchRendersRequiredFields(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"add","payload":{"service":"virtual machine"}}`,
		`{"region":"us-east-1","instance_name":"web-server-01"}`,
	)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "deploy a virtual machine"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowFieldsRequired, reply.Workflow)
	require.Len(t, reply.Response.RequiredFields, 2)
	assert.Equal(t, "us-east-1", reply.Response.RequiredFields[0].Example)
	assert.Contains(t, reply.Response.Message, "Region")
}

func TestDeployEnrichmentFailureDefaultsToEmptyExamples(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"add","payload":{"service":"virtual machine"}}`)
	// Second call (enrichment) errors out.
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "deploy a virtual machine"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowFieldsRequired, reply.Workflow)
	require.Len(t, reply.Response.RequiredFields, 2)
	assert.Empty(t, reply.Response.RequiredFields[0].Example)
}

func TestDeployMissListsAvailableEntities(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"add","payload":{"service":"quantum computer","context":"aws"}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "deploy a quantum computer in aws"})
	require.NoError(t, err)

	assert.Contains(t, reply.Response.Message, "Virtual Machine")
	assert.Contains(t, reply.Response.Message, "Object Storage")
	assert.Contains(t, reply.Response.Message, "AWS")
}

func TestFieldSubmissionAddsToCart(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"add","payload":{"service":"virtual machine"}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{
		UserID:  "u1",
		Message: "here are the details",
		Fields: &FieldSubmission{
			Template: "virtual machine",
			FormData: map[string]string{"region": "us-east-1", "instance_name": "web-1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowCartUpdated, reply.Workflow)
	require.NotNil(t, reply.Response.Cart)
	require.Len(t, reply.Response.Cart.Items, 1)
	assert.InDelta(t, 12, reply.Response.Cart.Total, 1e-9)

	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, conv.Cart.Items, 1, "the conversation snapshot is refreshed")
}

func TestFieldSubmissionFallsBackToPendingSelection(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"add","payload":{"service":"virtual machine"}}`,
		`{"region":"us-east-1"}`,
		`{"type":"add","payload":{}}`,
	)
	e, _ := newTestEngine(gen)
	ctx := context.Background()

	// Turn 1 matches the entry and leaves the selection pending.
	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "deploy a virtual machine"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowFieldsRequired, reply.Workflow)

	conv, err := e.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "vm-small", conv.PendingSelection)

	// Turn 2 submits values without naming a template; the pending
	// selection resolves the entry and is cleared on success.
	reply, err = e.Chat(ctx, ChatRequest{
		UserID:  "u1",
		Message: "here are the details",
		Fields:  &FieldSubmission{FormData: map[string]string{"region": "us-east-1", "instance_name": "web-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowCartUpdated, reply.Workflow)

	conv, err = e.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, conv.PendingSelection)
	assert.Len(t, conv.Cart.Items, 1)
}

func TestProcessOrderClearsCartAndTransients(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"add","payload":{"service":"object storage"}}`,
		`{"type":"process","payload":{}}`,
	)
	e, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "add object storage",
		Fields: &FieldSubmission{Template: "object storage", FormData: map[string]string{}}})
	require.NoError(t, err)

	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "process my order"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowOrderProcessed, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "$3.00")

	conv, err := e.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, conv.Cart.Items)
	assert.False(t, conv.GeneralChat)
}

func TestProcessEmptyCartFails(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"process","payload":{}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "checkout"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowOrderFailed, reply.Workflow)
	assert.Equal(t, orderApology, reply.Response.Message)
}

func TestRemoveUnknownItemApologizes(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"remove","payload":{"item":"mainframe"}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "remove the mainframe"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowCartFailed, reply.Workflow)
	assert.Equal(t, cartApology, reply.Response.Message)
}

func TestSetQuantityUpdatesSnapshot(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		`{"type":"add","payload":{"service":"object storage"}}`,
		`{"type":"set-quantity","payload":{"item":"object storage","quantity":4}}`,
	)
	e, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "add object storage",
		Fields: &FieldSubmission{Template: "object storage", FormData: map[string]string{}}})
	require.NoError(t, err)

	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "make it four"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowCartUpdated, reply.Workflow)
	assert.Contains(t, reply.Response.Message, "$12.00")
}

func TestCancelResetsSession(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"cancel","payload":{}}`)
	e, st := newTestEngine(gen)
	ctx := context.Background()

	seeded := testutil.NewConversationBuilder("u1").GeneralChat().
		Cart(core.CartItem{ID: "i1", Name: "Object Storage", Price: 3, Quantity: 2}).Build()
	require.NoError(t, st.Put(ctx, "u1", seeded))

	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "cancel all of this"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowCancelled, reply.Workflow)

	conv, err := e.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, conv.Cart.Items)
	assert.False(t, conv.GeneralChat)
}

func TestSummarizeReclassificationCountsUniqueQuestions(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"general","payload":{}}`)
	e, st := newTestEngine(gen)
	ctx := context.Background()

	seeded := testutil.NewConversationBuilder("u1").
		Human("what is a vm").Assistant("a machine").
		Human("what does it cost").Assistant("twelve dollars").
		Human("what is a vm").Assistant("still a machine"). // duplicate question
		Human("can you list my instances").Assistant("sure").
		Build()
	require.NoError(t, st.Put(ctx, "u1", seeded))

	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "how many questions have I asked?"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowSummary, reply.Workflow)
	require.NotNil(t, reply.Response.QuestionCount)
	assert.Equal(t, 3, *reply.Response.QuestionCount, "duplicates count once")
	assert.Len(t, reply.Response.Questions, 3)
	assert.Equal(t, 1, gen.Calls(), "only the classification call runs; the correction is local")
}

func TestSummarizePrefersPayloadCount(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"summarize","payload":{"count":7}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "summarize my questions"})
	require.NoError(t, err)
	require.NotNil(t, reply.Response.QuestionCount)
	assert.Equal(t, 7, *reply.Response.QuestionCount)
}

func TestPayloadContextHintOverridesConversation(t *testing.T) {
	gen := testutil.NewScriptedGenerator(`{"type":"view-options","payload":{"context":"azure"}}`)
	e, _ := newTestEngine(gen)

	reply, err := e.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "what can I do over there"})
	require.NoError(t, err)

	assert.Equal(t, core.WorkflowOptions, reply.Workflow)
	assert.Contains(t, reply.Response.Menu, "Deploy a kubernetes cluster on AZURE")

	conv, err := e.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "azure", conv.Context)
}

func TestCallerContextBeatsStoredContext(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, st := newTestEngine(gen)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "u1", testutil.NewConversationBuilder("u1").Context("aws").Build()))

	reply, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "hello", Context: "azure"})
	require.NoError(t, err)
	assert.Equal(t, core.WorkflowGreeting, reply.Workflow)

	conv, err := e.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "azure", conv.Context)
}

func TestDistinctUsersDoNotInterfere(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := e.Chat(ctx, ChatRequest{UserID: "alice", Message: "use azure please"})
	require.NoError(t, err)
	_, err = e.Chat(ctx, ChatRequest{UserID: "bob", Message: "hi"})
	require.NoError(t, err)

	alice, err := e.Conversation(ctx, "alice")
	require.NoError(t, err)
	bob, err := e.Conversation(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, "azure", alice.Context)
	assert.Equal(t, "aws", bob.Context)
	assert.Len(t, alice.History, 2)
	assert.Len(t, bob.History, 2)

	ids, err := e.Conversations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func TestHistoryPersistsAcrossTurns(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e, st := newTestEngine(gen)
	ctx := context.Background()

	_, err := e.Chat(ctx, ChatRequest{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	_, err = e.Chat(ctx, ChatRequest{UserID: "u1", Message: "hello"})
	require.NoError(t, err)

	conv, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, conv.History, 4)
	assert.Equal(t, core.RoleHuman, conv.History[0].Role)
	assert.Equal(t, core.RoleAssistant, conv.History[1].Role)
	assert.Equal(t, "hello", conv.History[2].Content)
}
