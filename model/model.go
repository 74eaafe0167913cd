package model

import (
	"context"
	"strings"
)

// Message is one entry of the prompt history sent to a generator. Role is
// "user" or "assistant"; anything else is treated as "user" by adapters.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized generator input produced by the engine
// stages: a system instruction plus the alternating conversation history,
// ending with the current user message.
type Request struct {
	Instructions string    `json:"instructions"`
	Messages     []Message `json:"messages"`
}

// Generator is the opaque text-generation capability. Implementations make
// a single call and honor ctx cancellation/deadline; they never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message { return Message{Role: "user", Content: content} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message { return Message{Role: "assistant", Content: content} }

// NormalizeRole collapses provider role vocabulary onto the two roles the
// adapters understand.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "model", "ai":
		return "assistant"
	default:
		return "user"
	}
}
