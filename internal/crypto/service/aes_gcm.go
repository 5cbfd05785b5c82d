package service

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// Security properties:
//   - 256-bit key size
//   - 12-byte nonce supplied by the caller, never reused under one key
//   - 16-byte authentication tag appended to the ciphertext
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from multiple
//	goroutines.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits) for AES-256.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeyLength {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with the provided nonce and AAD.
//
// The returned ciphertext includes the 16-byte authentication tag appended to the end.
// Returns ErrInvalidNonceSize if nonce is not 12 bytes.
func (a *AESGCMCipher) Encrypt(plaintext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	return a.aead.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM with the provided nonce and AAD.
//
// The authentication tag is verified before any plaintext is returned. A wrong
// key, a wrong AAD or any modified byte yields ErrDecryptionFailed.
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
