// Package service provides the cryptographic building blocks of the secrets cache:
// PBKDF2 key derivation and AEAD encryption (AES-256-GCM, ChaCha20-Poly1305)
// producing self-describing encrypted blobs.
package service

import (
	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
//
// The nonce is always supplied by the caller; implementations never pick one,
// so the single place that generates nonces is BlobCipher.GenerateNonce.
type AEAD interface {
	// Encrypt seals plaintext under nonce with optional AAD. The returned
	// ciphertext carries the authentication tag at the end.
	Encrypt(plaintext, nonce, aad []byte) ([]byte, error)

	// Decrypt opens ciphertext using the nonce and AAD used at encryption time.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver defines the interface for password-based key derivation.
type KeyDeriver interface {
	// Derive produces a KeyLength-byte key from passphrase and a SaltLength-byte salt.
	Derive(passphrase string, salt []byte) ([]byte, error)

	// GenerateSalt returns SaltLength cryptographically random bytes.
	GenerateSalt() ([]byte, error)

	// Verify re-derives the key and compares it to expectedKey in constant time.
	Verify(passphrase string, salt, expectedKey []byte) (bool, error)

	// Config returns a snapshot of the derivation parameters.
	Config() cryptoDomain.KDFConfig
}

// BlobCipher defines the interface for producing and opening encrypted blobs.
type BlobCipher interface {
	// GenerateNonce returns NonceLength cryptographically random bytes.
	GenerateNonce() ([]byte, error)

	// Encrypt seals plaintext under key and nonce and serializes the result.
	Encrypt(plaintext, key, nonce, aad []byte) ([]byte, error)

	// Seal generates a fresh nonce and encrypts plaintext with it.
	Seal(plaintext, key, aad []byte) ([]byte, error)

	// Decrypt parses a blob, verifies its tag and returns the plaintext.
	Decrypt(blob, key, aad []byte) ([]byte, error)
}
