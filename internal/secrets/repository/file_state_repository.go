// Package repository implements persistence of the secrets cache state.
// Only the installation salt and the key rotation metadata reach the disk; cache
// entries and key material never do.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
	apperrors "github.com/allisson/secretcache/internal/errors"
	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

const (
	// SaltFileName holds the raw 16-byte salt, no header.
	SaltFileName = "salt"

	// MetadataFileName holds the rotation metadata JSON document.
	MetadataFileName = "key-rotation.json"

	dirMode  fs.FileMode = 0o700
	fileMode fs.FileMode = 0o600
)

// metadataRecord is the on-disk shape of RotationMetadata. Timestamps are epoch milliseconds.
type metadataRecord struct {
	Version              int    `json:"version"`
	CreatedAt            int64  `json:"createdAt"`
	RotatedAt            *int64 `json:"rotatedAt,omitempty"`
	PreviousKeyExpiredAt *int64 `json:"previousKeyExpiredAt,omitempty"`
}

// FileStateRepository stores the salt and rotation metadata as two files in a
// private directory.
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so a crash never leaves a half-written salt or metadata document.
// The repository does not lock against other processes: one cache instance
// owns a state directory.
type FileStateRepository struct {
	dir string
}

// NewFileStateRepository creates a repository rooted at dir.
func NewFileStateRepository(dir string) *FileStateRepository {
	return &FileStateRepository{dir: dir}
}

// Dir returns the state directory.
func (r *FileStateRepository) Dir() string {
	return r.dir
}

// EnsureDir creates the state directory with mode 0700 if missing and
// tightens its permissions if it already exists.
func (r *FileStateRepository) EnsureDir(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, dirMode); err != nil {
		return apperrors.Wrap(err, "failed to create state directory")
	}
	if err := os.Chmod(r.dir, dirMode); err != nil {
		return apperrors.Wrap(err, "failed to restrict state directory permissions")
	}
	return nil
}

// LoadSalt reads the salt file.
//
// Returns ErrStateNotFound if the file does not exist and ErrInvalidSaltSize if
// it is not exactly 16 bytes.
func (r *FileStateRepository) LoadSalt(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	salt, err := os.ReadFile(r.path(SaltFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, secretsDomain.ErrStateNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read salt")
	}
	if len(salt) != cryptoDomain.SaltLength {
		size := len(salt)
		cryptoDomain.Zero(salt)
		return nil, fmt.Errorf("%w: salt file has %d bytes", cryptoDomain.ErrInvalidSaltSize, size)
	}
	return salt, nil
}

// SaveSalt writes salt atomically with mode 0600.
func (r *FileStateRepository) SaveSalt(ctx context.Context, salt []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(salt) != cryptoDomain.SaltLength {
		return fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidSaltSize, len(salt))
	}
	return r.writeAtomic(SaltFileName, salt)
}

// LoadMetadata reads and validates the rotation metadata.
//
// Returns ErrStateNotFound if the file does not exist and ErrInvalidMetadata if
// it cannot be parsed or fails validation.
func (r *FileStateRepository) LoadMetadata(ctx context.Context) (secretsDomain.RotationMetadata, error) {
	if err := ctx.Err(); err != nil {
		return secretsDomain.RotationMetadata{}, err
	}
	data, err := os.ReadFile(r.path(MetadataFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return secretsDomain.RotationMetadata{}, secretsDomain.ErrStateNotFound
		}
		return secretsDomain.RotationMetadata{}, apperrors.Wrap(err, "failed to read rotation metadata")
	}

	var record metadataRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return secretsDomain.RotationMetadata{}, fmt.Errorf("%w: %v", secretsDomain.ErrInvalidMetadata, err)
	}

	metadata := fromRecord(record)
	if err := metadata.Validate(); err != nil {
		return secretsDomain.RotationMetadata{}, err
	}
	return metadata, nil
}

// SaveMetadata writes the rotation metadata atomically with mode 0600.
func (r *FileStateRepository) SaveMetadata(ctx context.Context, metadata secretsDomain.RotationMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(toRecord(metadata), "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode rotation metadata")
	}
	return r.writeAtomic(MetadataFileName, data)
}

func (r *FileStateRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

func (r *FileStateRepository) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(r.dir, "."+name+".tmp-*")
	if err != nil {
		return apperrors.Wrapf(err, "failed to create temporary file for %s", name)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return apperrors.Wrapf(err, "failed to set permissions on %s", name)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrapf(err, "failed to write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrapf(err, "failed to sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, "failed to close %s", name)
	}
	if err := os.Rename(tmpName, r.path(name)); err != nil {
		return apperrors.Wrapf(err, "failed to replace %s", name)
	}
	committed = true
	return nil
}

func toRecord(m secretsDomain.RotationMetadata) metadataRecord {
	record := metadataRecord{
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
	if m.RotatedAt != nil {
		ms := m.RotatedAt.UnixMilli()
		record.RotatedAt = &ms
	}
	if m.PreviousKeyExpiredAt != nil {
		ms := m.PreviousKeyExpiredAt.UnixMilli()
		record.PreviousKeyExpiredAt = &ms
	}
	return record
}

func fromRecord(record metadataRecord) secretsDomain.RotationMetadata {
	m := secretsDomain.RotationMetadata{Version: record.Version}
	if record.CreatedAt != 0 {
		m.CreatedAt = time.UnixMilli(record.CreatedAt).UTC()
	}
	if record.RotatedAt != nil {
		t := time.UnixMilli(*record.RotatedAt).UTC()
		m.RotatedAt = &t
	}
	if record.PreviousKeyExpiredAt != nil {
		t := time.UnixMilli(*record.PreviousKeyExpiredAt).UTC()
		m.PreviousKeyExpiredAt = &t
	}
	return m
}
