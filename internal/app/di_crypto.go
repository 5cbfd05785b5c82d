package app

import (
	"fmt"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
	cryptoService "github.com/allisson/secretcache/internal/crypto/service"
)

// KeyDeriver returns the PBKDF2 deriver configured with KDF_ITERATIONS.
func (c *Container) KeyDeriver() (cryptoService.KeyDeriver, error) {
	var err error
	c.keyDeriverInit.Do(func() {
		c.keyDeriver, err = c.initKeyDeriver()
		if err != nil {
			c.initErrors["keyDeriver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyDeriver"]; exists {
		return nil, storedErr
	}
	return c.keyDeriver, nil
}

// BlobCipher returns the cipher that seals new entries with CIPHER_ALGORITHM.
func (c *Container) BlobCipher() (cryptoService.BlobCipher, error) {
	var err error
	c.blobCipherInit.Do(func() {
		c.blobCipher, err = c.initBlobCipher()
		if err != nil {
			c.initErrors["blobCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blobCipher"]; exists {
		return nil, storedErr
	}
	return c.blobCipher, nil
}

func (c *Container) initKeyDeriver() (cryptoService.KeyDeriver, error) {
	deriver, err := cryptoService.NewPBKDF2KeyDeriver(cryptoService.WithIterations(c.config.KDFIterations))
	if err != nil {
		return nil, fmt.Errorf("failed to create key deriver: %w", err)
	}
	return deriver, nil
}

func (c *Container) initBlobCipher() (cryptoService.BlobCipher, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.CipherAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cipher algorithm %q: %w", c.config.CipherAlgorithm, err)
	}
	return cryptoService.NewBlobCipher(cryptoService.NewAEADManager(), algorithm), nil
}
