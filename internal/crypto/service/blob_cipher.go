package service

import (
	"crypto/rand"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// BlobCipherService implements BlobCipher on top of an AEADManager.
//
// New blobs are written with the configured algorithm. Decryption reads the
// algorithm from the blob header, so blobs written under either supported
// algorithm remain readable after a configuration change.
type BlobCipherService struct {
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
	rand        io.Reader
}

// NewBlobCipher creates a BlobCipherService writing blobs with alg.
func NewBlobCipher(aeadManager AEADManager, alg cryptoDomain.Algorithm) *BlobCipherService {
	return &BlobCipherService{
		aeadManager: aeadManager,
		algorithm:   alg,
		rand:        rand.Reader,
	}
}

// Algorithm returns the algorithm used for new blobs.
func (c *BlobCipherService) Algorithm() cryptoDomain.Algorithm {
	return c.algorithm
}

// GenerateNonce returns a fresh 12-byte random nonce.
func (c *BlobCipherService) GenerateNonce() ([]byte, error) {
	nonce := make([]byte, cryptoDomain.NonceLength)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// Encrypt seals plaintext and returns the serialized blob
// (version | algorithm | nonce | ciphertext | tag).
//
// The nonce must come from GenerateNonce and must never be passed twice with the
// same key. Callers that do not need to control the nonce should use Seal.
func (c *BlobCipherService) Encrypt(plaintext, key, nonce, aad []byte) ([]byte, error) {
	aead, err := c.aeadManager.CreateCipher(key, c.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, err := aead.Encrypt(plaintext, nonce, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	blob := cryptoDomain.EncryptedBlob{
		Algorithm:  c.algorithm,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	return blob.MarshalBinary()
}

// Seal generates a nonce and encrypts plaintext with it.
func (c *BlobCipherService) Seal(plaintext, key, aad []byte) ([]byte, error) {
	nonce, err := c.GenerateNonce()
	if err != nil {
		return nil, err
	}
	return c.Encrypt(plaintext, key, nonce, aad)
}

// Decrypt parses blob and returns the plaintext if the tag verifies.
//
// Returns ErrInvalidBlob for truncated or unrecognized blobs and
// ErrDecryptionFailed for wrong keys, wrong AAD or modified bytes. Both wrap
// errors.ErrIntegrity.
func (c *BlobCipherService) Decrypt(blob, key, aad []byte) ([]byte, error) {
	parsed, err := cryptoDomain.ParseEncryptedBlob(blob)
	if err != nil {
		return nil, err
	}

	aead, err := c.aeadManager.CreateCipher(key, parsed.Algorithm)
	if err != nil {
		return nil, err
	}

	return aead.Decrypt(parsed.Ciphertext, parsed.Nonce, aad)
}
