package core

import "errors"

// Sentinel errors for the failure classes callers branch on. Everything
// past request validation is recovered inside the engine and degraded to a
// polite reply; only ErrMissingUserID reaches the transport layer.
var (
	// ErrMissingUserID rejects a chat request without a user id.
	ErrMissingUserID = errors.New("userId is required")
	// ErrNotFound reports an absent conversation record.
	ErrNotFound = errors.New("conversation not found")
	// ErrUnsupportedListing reports a (context, resource type) pair the
	// lister is not defined for.
	ErrUnsupportedListing = errors.New("resource listing not supported for context")
)
