package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// aeadConstructors maps each supported algorithm to its cipher constructor.
var aeadConstructors = map[cryptoDomain.Algorithm]func(key []byte) (AEAD, error){
	cryptoDomain.AESGCM: func(key []byte) (AEAD, error) {
		return NewAESGCM(key)
	},
	cryptoDomain.ChaCha20: func(key []byte) (AEAD, error) {
		return NewChaCha20Poly1305(key)
	},
}

// AEADManagerService builds the AEAD named by configuration or by the
// algorithm byte of a blob header.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns the AEAD for alg keyed with key.
//
// The returned cipher keeps its own copy of the key schedule, so the caller
// may wipe key as soon as CreateCipher returns.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeyLength {
		return nil, fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidKeySize, len(key))
	}

	newCipher, ok := aeadConstructors[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, alg)
	}
	return newCipher(key)
}
