package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// PBKDF2KeyDeriver implements KeyDeriver with PBKDF2-HMAC-SHA256.
//
// Derivation is deliberately slow (hundreds of milliseconds at the default
// iteration count) and must be kept off latency-sensitive paths. The deriver is
// immutable after construction and safe for concurrent use.
type PBKDF2KeyDeriver struct {
	iterations int
	rand       io.Reader
}

// KDFOption configures a PBKDF2KeyDeriver.
type KDFOption func(*PBKDF2KeyDeriver) error

// WithIterations sets the iteration count. Values below MinIterations are rejected.
func WithIterations(iterations int) KDFOption {
	return func(d *PBKDF2KeyDeriver) error {
		if iterations < cryptoDomain.MinIterations {
			return fmt.Errorf(
				"%w: %d < %d",
				cryptoDomain.ErrIterationsTooLow,
				iterations,
				cryptoDomain.MinIterations,
			)
		}
		d.iterations = iterations
		return nil
	}
}

// WithIterationsUnchecked sets the iteration count without enforcing the floor.
// Only tests use it to keep suites fast.
func WithIterationsUnchecked(iterations int) KDFOption {
	return func(d *PBKDF2KeyDeriver) error {
		if iterations < 1 {
			return fmt.Errorf("%w: %d", cryptoDomain.ErrIterationsTooLow, iterations)
		}
		d.iterations = iterations
		return nil
	}
}

// WithRandReader replaces the salt entropy source (crypto/rand by default).
func WithRandReader(r io.Reader) KDFOption {
	return func(d *PBKDF2KeyDeriver) error {
		d.rand = r
		return nil
	}
}

// NewPBKDF2KeyDeriver creates a deriver using MinIterations unless overridden.
func NewPBKDF2KeyDeriver(opts ...KDFOption) (*PBKDF2KeyDeriver, error) {
	d := &PBKDF2KeyDeriver{
		iterations: cryptoDomain.MinIterations,
		rand:       rand.Reader,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Derive produces a 32-byte key from passphrase and salt.
//
// The passphrase is used byte-for-byte: no trimming, case folding or Unicode
// normalization. Empty and very long passphrases are accepted. The salt must be
// exactly 16 bytes.
func (d *PBKDF2KeyDeriver) Derive(passphrase string, salt []byte) ([]byte, error) {
	if len(salt) != cryptoDomain.SaltLength {
		return nil, fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidSaltSize, len(salt))
	}
	return pbkdf2.Key([]byte(passphrase), salt, d.iterations, cryptoDomain.KeyLength, sha256.New), nil
}

// GenerateSalt returns 16 bytes from the configured random source.
func (d *PBKDF2KeyDeriver) GenerateSalt() ([]byte, error) {
	salt := make([]byte, cryptoDomain.SaltLength)
	if _, err := io.ReadFull(d.rand, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Verify re-derives the key and compares it with expectedKey in constant time.
//
// A wrong passphrase, a different salt or corrupted key bytes return false with
// a nil error. Only malformed inputs (wrong-length salt or expectedKey) return
// an error.
func (d *PBKDF2KeyDeriver) Verify(passphrase string, salt, expectedKey []byte) (bool, error) {
	if len(expectedKey) != cryptoDomain.KeyLength {
		return false, fmt.Errorf("%w: expected key is %d bytes", cryptoDomain.ErrInvalidKeySize, len(expectedKey))
	}

	derived, err := d.Derive(passphrase, salt)
	if err != nil {
		return false, err
	}
	defer cryptoDomain.Zero(derived)

	return subtle.ConstantTimeCompare(derived, expectedKey) == 1, nil
}

// Config returns a copy of the derivation parameters.
func (d *PBKDF2KeyDeriver) Config() cryptoDomain.KDFConfig {
	return cryptoDomain.KDFConfig{
		Algorithm:    "pbkdf2",
		HashFunction: "sha256",
		Iterations:   d.iterations,
		SaltLength:   cryptoDomain.SaltLength,
		KeyLength:    cryptoDomain.KeyLength,
	}
}
