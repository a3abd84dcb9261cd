package chain

import "errors"

// Sentinel errors. Operations wrap them with detail; callers test with
// errors.Is. Store failures are wrapped with %w and match none of these.
var (
	// ErrValidation marks malformed input rejected before any state change.
	ErrValidation = errors.New("chain: invalid request")
	// ErrNotRegistered marks a device id unknown to the chain.
	ErrNotRegistered = errors.New("chain: device not registered")
	// ErrConflict marks a stale If-Match on a feeds update.
	ErrConflict = errors.New("chain: feeds etag mismatch")
	// ErrPreconditionRequired marks a feeds update without If-Match once
	// feeds exist.
	ErrPreconditionRequired = errors.New("chain: if-match required")
	// ErrNotFound marks a missing device on removal.
	ErrNotFound = errors.New("chain: not found")
)
