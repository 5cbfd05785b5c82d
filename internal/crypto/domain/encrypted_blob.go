package domain

import (
	"fmt"
)

// blobFormatVersion is the first byte of every serialized blob.
const blobFormatVersion byte = 1

// blobHeaderLength covers the format version and algorithm id bytes.
const blobHeaderLength = 2

// EncryptedBlob is the self-describing unit stored for every cache entry.
//
// Binary layout:
//
//	version (1) | algorithm (1) | nonce (12) | ciphertext (n) | tag (16)
//
// Ciphertext holds the AEAD output, i.e. the encrypted bytes followed by the tag.
type EncryptedBlob struct {
	Algorithm  Algorithm
	Nonce      []byte
	Ciphertext []byte
}

// MarshalBinary serializes the blob into a single byte slice.
func (b EncryptedBlob) MarshalBinary() ([]byte, error) {
	id, ok := b.Algorithm.blobID()
	if !ok {
		return nil, ErrUnsupportedAlgorithm
	}
	if len(b.Nonce) != NonceLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidNonceSize, len(b.Nonce))
	}
	if len(b.Ciphertext) < TagLength {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrInvalidBlob)
	}

	out := make([]byte, 0, blobHeaderLength+len(b.Nonce)+len(b.Ciphertext))
	out = append(out, blobFormatVersion, id)
	out = append(out, b.Nonce...)
	out = append(out, b.Ciphertext...)
	return out, nil
}

// ParseEncryptedBlob decodes the output of MarshalBinary.
//
// Returns ErrInvalidBlob when the data is truncated, carries an unknown format
// version or an unknown algorithm id. The returned slices alias data.
func ParseEncryptedBlob(data []byte) (EncryptedBlob, error) {
	if len(data) < blobHeaderLength+NonceLength+TagLength {
		return EncryptedBlob{}, fmt.Errorf("%w: %d bytes is too short", ErrInvalidBlob, len(data))
	}
	if data[0] != blobFormatVersion {
		return EncryptedBlob{}, fmt.Errorf("%w: unknown format version %d", ErrInvalidBlob, data[0])
	}
	alg, ok := algorithmFromBlobID(data[1])
	if !ok {
		return EncryptedBlob{}, fmt.Errorf("%w: unknown algorithm id %d", ErrInvalidBlob, data[1])
	}

	body := data[blobHeaderLength:]
	return EncryptedBlob{
		Algorithm:  alg,
		Nonce:      body[:NonceLength],
		Ciphertext: body[NonceLength:],
	}, nil
}
