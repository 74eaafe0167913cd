// Package engine implements the conversational orchestration pipeline:
// every incoming message passes through an intent router, a model-backed
// action resolver, an action executor and a response synthesizer, in that
// order, over a single typed turn state. The router can terminate the
// pipeline early with a deterministic reply; the synthesizer may re-enter
// the executor exactly once to correct a missed summarize classification.
// All failures past request validation degrade to polite replies and are
// logged, never propagated.
package engine
