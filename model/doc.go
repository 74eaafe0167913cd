// Package model abstracts the external text-generation capability behind
// the minimal Generator interface: given a system instruction and a
// message history, return one text completion. Provider adapters live in
// the openai and anthropic subpackages; tests use scripted fakes from
// internal/testutil.
package model
