package domain

import (
	"github.com/allisson/secretcache/internal/errors"
)

// Secrets cache error definitions.
var (
	// ErrNotInitialized indicates Set or Get was called before a successful Initialize.
	ErrNotInitialized = errors.Wrap(errors.ErrUnavailable, "secrets cache not initialized")

	// ErrInitializationFailed indicates Initialize could not bring the cache to Ready.
	// The cache stays unusable; the underlying cause is wrapped alongside.
	ErrInitializationFailed = errors.Wrap(errors.ErrInternal, "secrets cache initialization failed")

	// ErrTampered indicates an entry could not be decrypted under the current key
	// nor under the previous key within its grace window. It is never reported as
	// a missing entry.
	ErrTampered = errors.Wrap(errors.ErrIntegrity, "secret entry tampered or corrupted")

	// ErrInvalidMetadata indicates persisted rotation metadata failed validation.
	ErrInvalidMetadata = errors.Wrap(errors.ErrInvalidInput, "invalid rotation metadata")

	// ErrStateNotFound indicates a persisted state file does not exist yet.
	ErrStateNotFound = errors.Wrap(errors.ErrNotFound, "persisted state not found")
)
