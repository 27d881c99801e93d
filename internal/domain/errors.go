package domain

import "errors"

// Sentinel errors shared between the store implementations and the engine.
var (
	// ErrSessionNotFound means no session record exists for the customer yet.
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict means a concurrent event for the same customer
	// committed between load and save. The caller reloads and retries.
	ErrVersionConflict = errors.New("session version conflict")
)
