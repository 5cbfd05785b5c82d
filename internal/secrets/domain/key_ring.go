package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
)

// errEmptyKey is returned when a key ring is built from an empty buffer.
var errEmptyKey = errors.New("empty key material")

// KeyRing holds the current master key and, during a grace window, the previous one.
//
// Keys are sealed in memguard enclaves so the raw bytes only exist in guarded,
// locked memory while an operation is using them. A KeyRing is not safe for
// concurrent mutation; the cache serializes writers.
type KeyRing struct {
	current        *memguard.Enclave
	currentVersion int

	previous          *memguard.Enclave
	previousVersion   int
	previousExpiresAt time.Time
}

// SealKey moves key into an encrypted enclave and wipes the key slice.
//
// An enclave can be opened any number of times, so a sealed key may be shared
// between goroutines waiting on the same derivation.
func SealKey(key []byte) (*memguard.Enclave, error) {
	enclave := memguard.NewEnclave(key)
	if enclave == nil {
		return nil, errEmptyKey
	}
	return enclave, nil
}

// NewKeyRing creates a ring whose current key is sealed.
func NewKeyRing(version int, sealed *memguard.Enclave) (*KeyRing, error) {
	if sealed == nil {
		return nil, errEmptyKey
	}
	return &KeyRing{current: sealed, currentVersion: version}, nil
}

// SetPrevious installs sealed as the previous key, usable until expiresAt.
func (k *KeyRing) SetPrevious(version int, sealed *memguard.Enclave, expiresAt time.Time) error {
	if sealed == nil {
		return errEmptyKey
	}
	k.previous = sealed
	k.previousVersion = version
	k.previousExpiresAt = expiresAt
	return nil
}

// PreviousVersion returns the version of the previous key, or 0 when none is held.
func (k *KeyRing) PreviousVersion() int {
	return k.previousVersion
}

// CurrentVersion returns the version of the current key.
func (k *KeyRing) CurrentVersion() int {
	return k.currentVersion
}

// HasPrevious reports whether a previous key is held and still valid at now.
func (k *KeyRing) HasPrevious(now time.Time) bool {
	return k.previous != nil && now.Before(k.previousExpiresAt)
}

// OpenCurrent returns the current key in a locked buffer. Callers must Destroy it.
func (k *KeyRing) OpenCurrent() (*memguard.LockedBuffer, error) {
	if k.current == nil {
		return nil, errEmptyKey
	}
	buf, err := k.current.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open current key: %w", err)
	}
	return buf, nil
}

// OpenPrevious returns the previous key if its grace window is still open at now.
// The boolean is false when no usable previous key exists. Callers must Destroy
// a returned buffer.
func (k *KeyRing) OpenPrevious(now time.Time) (*memguard.LockedBuffer, bool, error) {
	if !k.HasPrevious(now) {
		return nil, false, nil
	}
	buf, err := k.previous.Open()
	if err != nil {
		return nil, false, fmt.Errorf("failed to open previous key: %w", err)
	}
	return buf, true, nil
}

// Promote makes sealed the current key and moves the old current key into the
// previous slot until expiresAt.
func (k *KeyRing) Promote(version int, sealed *memguard.Enclave, expiresAt time.Time) error {
	if sealed == nil {
		return errEmptyKey
	}
	k.previous = k.current
	k.previousVersion = k.currentVersion
	k.previousExpiresAt = expiresAt
	k.current = sealed
	k.currentVersion = version
	return nil
}

// DropPrevious forgets the previous key.
func (k *KeyRing) DropPrevious() {
	k.previous = nil
	k.previousVersion = 0
	k.previousExpiresAt = time.Time{}
}

// Close forgets every key held by the ring. The sealed ciphertext left behind
// is unreadable once memguard destroys its session key on exit.
func (k *KeyRing) Close() {
	k.DropPrevious()
	k.current = nil
	k.currentVersion = 0
}
