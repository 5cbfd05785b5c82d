// Package usecase implements the encrypted secrets cache: an in-memory map of
// AEAD-encrypted entries under a master key derived from machine entropy, with
// time-based key rotation and a grace window for the previous key.
package usecase

import (
	"context"

	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// StateRepository persists the salt and the key rotation metadata.
type StateRepository interface {
	EnsureDir(ctx context.Context) error
	LoadSalt(ctx context.Context) ([]byte, error)
	SaveSalt(ctx context.Context, salt []byte) error
	LoadMetadata(ctx context.Context) (secretsDomain.RotationMetadata, error)
	SaveMetadata(ctx context.Context, metadata secretsDomain.RotationMetadata) error
}

// EntropyProvider supplies the machine entropy string used as the derivation passphrase.
type EntropyProvider interface {
	Entropy() (string, error)
}

// SecretsCache defines the operations of the encrypted secrets cache.
type SecretsCache interface {
	// Initialize loads or creates the persisted state, derives the master key and
	// rotates it if it is older than the rotation period. It is a no-op on a
	// ready cache. On failure the cache stays unusable.
	Initialize(ctx context.Context) error

	// Set encrypts plaintext under the current key and stores it under name,
	// replacing any previous entry.
	Set(ctx context.Context, name, plaintext string) error

	// Get decrypts the entry stored under name. The boolean is false when name
	// was never set. A blob that fails to decrypt returns ErrTampered.
	Get(ctx context.Context, name string) (string, bool, error)

	// Has reports whether an entry exists under name.
	Has(name string) bool

	// Keys returns the entry names in sorted order.
	Keys() []string

	// Delete removes the entry under name and reports whether it existed.
	Delete(name string) bool

	// Clear removes every entry.
	Clear()

	// KeyVersion returns the current master key version, or 0 before Initialize.
	KeyVersion() int

	// RotationMetadata returns a copy of the persisted rotation metadata.
	RotationMetadata() (secretsDomain.RotationMetadata, error)

	// CheckRotation rotates the master key if it is older than the rotation
	// period and releases the previous key once its grace window has ended.
	// It reports whether a rotation happened.
	CheckRotation(ctx context.Context) (bool, error)

	// Rotate rotates the master key regardless of its age.
	Rotate(ctx context.Context) error

	// State returns the lifecycle state.
	State() secretsDomain.State

	// Close forgets all entries and key material. Initialize may be called again.
	Close()
}
