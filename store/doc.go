// Package store provides core.ConversationStore implementations: a
// whole-document JSON file store, a bbolt-backed keyed store, and a
// volatile in-memory store for tests and demos. All of them are
// last-writer-wins per record; none serialize concurrent turns for the
// same user.
package store
