package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

func TestNewAESGCM(t *testing.T) {
	t.Run("valid 256-bit key", func(t *testing.T) {
		cipher, err := NewAESGCM(randomBytes(t, 32))
		assert.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("AES-128 key is rejected", func(t *testing.T) {
		cipher, err := NewAESGCM(randomBytes(t, 16))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
		assert.Nil(t, cipher)
	})
}

func TestAESGCMCipher_EncryptDecrypt(t *testing.T) {
	key := randomBytes(t, 32)
	cipher, err := NewAESGCM(key)
	require.NoError(t, err)

	plaintext := []byte("sk-live-0123456789")
	nonce := randomBytes(t, 12)

	ciphertext, err := cipher.Encrypt(plaintext, nonce, nil)
	require.NoError(t, err)
	assert.Len(t, ciphertext, len(plaintext)+cryptoDomain.TagLength)

	t.Run("round trip", func(t *testing.T) {
		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		other, err := NewAESGCM(randomBytes(t, 32))
		require.NoError(t, err)

		_, err = other.Decrypt(ciphertext, nonce, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("flipped tag bit fails", func(t *testing.T) {
		tampered := bytes.Clone(ciphertext)
		tampered[len(tampered)-1] ^= 0x80

		_, err := cipher.Decrypt(tampered, nonce, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("truncated ciphertext fails", func(t *testing.T) {
		_, err := cipher.Decrypt(ciphertext[:cryptoDomain.TagLength-1], nonce, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("short nonce is rejected", func(t *testing.T) {
		_, err := cipher.Decrypt(ciphertext, nonce[:8], nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidNonceSize)
	})
}
