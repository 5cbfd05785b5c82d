package domain

import (
	"github.com/allisson/secretcache/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap the standard errors from internal/errors so
// callers can distinguish malformed input from integrity failures.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly KeyLength bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidSaltSize indicates a salt is not exactly SaltLength bytes.
	ErrInvalidSaltSize = errors.Wrap(errors.ErrInvalidInput, "invalid salt size")

	// ErrInvalidNonceSize indicates a nonce is not exactly NonceLength bytes.
	ErrInvalidNonceSize = errors.Wrap(errors.ErrInvalidInput, "invalid nonce size")

	// ErrIterationsTooLow indicates a key-derivation iteration count below MinIterations.
	ErrIterationsTooLow = errors.Wrap(errors.ErrInvalidInput, "kdf iteration count below minimum")

	// ErrInvalidBlob indicates an encrypted blob is truncated or its header is unknown.
	ErrInvalidBlob = errors.Wrap(errors.ErrIntegrity, "invalid encrypted blob")

	// ErrDecryptionFailed indicates authentication failed during decryption.
	//
	// This can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext or tag has been tampered with
	//   - Corrupted encrypted data
	//
	// The specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")
)
