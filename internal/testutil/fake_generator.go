package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/conciergedev/concierge/model"
)

// ErrScriptExhausted is returned when a ScriptedGenerator runs out of
// queued responses.
var ErrScriptExhausted = errors.New("scripted generator: no responses left")

// ScriptedGenerator replays a fixed queue of responses (or errors) and
// records every request it saw. Safe for concurrent use.
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []scriptEntry
	requests  []model.Request
}

type scriptEntry struct {
	text string
	err  error
}

var _ model.Generator = (*ScriptedGenerator)(nil)

// NewScriptedGenerator queues the given successful responses in order.
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	g := &ScriptedGenerator{}
	for _, r := range responses {
		g.responses = append(g.responses, scriptEntry{text: r})
	}
	return g
}

// QueueResponse appends a successful response.
func (g *ScriptedGenerator) QueueResponse(text string) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, scriptEntry{text: text})
	return g
}

// QueueError appends a failing call.
func (g *ScriptedGenerator) QueueError(err error) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, scriptEntry{err: err})
	return g
}

// Generate pops the next scripted entry.
func (g *ScriptedGenerator) Generate(_ context.Context, req model.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.responses) == 0 {
		return "", ErrScriptExhausted
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	return next.text, next.err
}

// Calls reports how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// Requests returns a copy of the recorded requests.
func (g *ScriptedGenerator) Requests() []model.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.Request, len(g.requests))
	copy(out, g.requests)
	return out
}
