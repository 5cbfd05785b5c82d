// Package domain defines the state of the encrypted secrets cache: key rotation
// metadata persisted across restarts, the in-memory key ring holding the current
// and previous master keys, and the cache lifecycle states.
package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultRotationPeriod is the master key age that triggers a rotation.
	DefaultRotationPeriod = 7 * 24 * time.Hour

	// DefaultGracePeriod is how long the previous master key stays usable for
	// decryption after a rotation.
	DefaultGracePeriod = 24 * time.Hour
)

// RotationMetadata is the persisted record of master key rotation state.
//
// It is the single source of truth for the key version across restarts and is
// only mutated by a rotation.
type RotationMetadata struct {
	Version              int        // Monotonic key version, starting at 1
	CreatedAt            time.Time  // When the current key version came into use
	RotatedAt            *time.Time // When the last rotation happened (nil before the first)
	PreviousKeyExpiredAt *time.Time // End of the previous key's grace window
}

// NewRotationMetadata returns the metadata of a fresh installation.
func NewRotationMetadata(now time.Time) RotationMetadata {
	return RotationMetadata{
		Version:   1,
		CreatedAt: persistedTime(now),
	}
}

// persistedTime drops what the metadata file cannot hold, so the in-memory
// record matches the one read back after a restart.
func persistedTime(t time.Time) time.Time {
	return t.Truncate(time.Millisecond).UTC()
}

// Validate checks the invariants of loaded metadata.
func (m RotationMetadata) Validate() error {
	if m.Version < 1 {
		return fmt.Errorf("%w: version %d", ErrInvalidMetadata, m.Version)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing createdAt", ErrInvalidMetadata)
	}
	return nil
}

// RotationDue reports whether the current key is older than period.
func (m RotationMetadata) RotationDue(now time.Time, period time.Duration) bool {
	return now.Sub(m.CreatedAt) > period
}

// Rotate returns the metadata after a rotation at now: the version is bumped,
// the key age restarts and the previous key gets a grace window.
func (m RotationMetadata) Rotate(now time.Time, grace time.Duration) RotationMetadata {
	rotatedAt := persistedTime(now)
	expiresAt := persistedTime(rotatedAt.Add(grace))
	return RotationMetadata{
		Version:              m.Version + 1,
		CreatedAt:            rotatedAt,
		RotatedAt:            &rotatedAt,
		PreviousKeyExpiredAt: &expiresAt,
	}
}

// InGracePeriod reports whether the previous key may still be used at now.
func (m RotationMetadata) InGracePeriod(now time.Time) bool {
	return m.Version > 1 && m.PreviousKeyExpiredAt != nil && now.Before(*m.PreviousKeyExpiredAt)
}

// Clone returns a deep copy so callers cannot mutate cache-owned timestamps.
func (m RotationMetadata) Clone() RotationMetadata {
	out := m
	if m.RotatedAt != nil {
		t := *m.RotatedAt
		out.RotatedAt = &t
	}
	if m.PreviousKeyExpiredAt != nil {
		t := *m.PreviousKeyExpiredAt
		out.PreviousKeyExpiredAt = &t
	}
	return out
}
