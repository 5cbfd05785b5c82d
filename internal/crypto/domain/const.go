// Package domain defines the cryptographic primitives shared by the secrets cache:
// supported AEAD algorithms, fixed key/salt/nonce sizes, the key-derivation
// configuration snapshot and the self-describing encrypted blob layout.
package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of encrypted data. A blob that was
// modified after encryption is rejected at decryption time instead of yielding garbage.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Constant-time software implementation
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Fixed sizes used across key derivation, encryption and persisted state.
const (
	// SaltLength is the size in bytes of the installation salt.
	SaltLength = 16

	// KeyLength is the size in bytes of every master key (256 bits).
	KeyLength = 32

	// NonceLength is the AEAD nonce size in bytes for both supported algorithms.
	NonceLength = 12

	// TagLength is the AEAD authentication tag size in bytes.
	TagLength = 16

	// MinIterations is the lowest PBKDF2-HMAC-SHA256 iteration count accepted
	// outside of tests (OWASP floor).
	MinIterations = 600_000
)

// ParseAlgorithm converts a configuration string into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// blobID returns the one-byte identifier written into encrypted blobs.
func (a Algorithm) blobID() (byte, bool) {
	switch a {
	case AESGCM:
		return 0x01, true
	case ChaCha20:
		return 0x02, true
	default:
		return 0, false
	}
}

func algorithmFromBlobID(id byte) (Algorithm, bool) {
	switch id {
	case 0x01:
		return AESGCM, true
	case 0x02:
		return ChaCha20, true
	default:
		return "", false
	}
}
