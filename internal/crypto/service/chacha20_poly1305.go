package service

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// ChaCha20Poly1305Cipher implements the AEAD interface using ChaCha20-Poly1305.
//
// It is particularly efficient on platforms without hardware AES acceleration.
type ChaCha20Poly1305Cipher struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher instance.
//
// Returns ErrInvalidKeySize if the key is not 32 bytes.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Cipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using ChaCha20-Poly1305 with the provided nonce and AAD.
//
// Returns the ciphertext with the Poly1305 tag appended.
func (c *ChaCha20Poly1305Cipher) Encrypt(plaintext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	return c.aead.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt decrypts ciphertext using ChaCha20-Poly1305 with the provided nonce and AAD.
func (c *ChaCha20Poly1305Cipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
