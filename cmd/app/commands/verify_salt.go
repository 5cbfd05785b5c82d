package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// SaltLoader reads the installation salt.
type SaltLoader interface {
	LoadSalt(ctx context.Context) ([]byte, error)
}

// RunVerifySalt checks that the installation salt exists and has the expected
// length. The salt bytes are never printed.
//
// A missing or malformed salt is reported as an error: the next Initialize
// would replace it and every previously derived key would change.
func RunVerifySalt(ctx context.Context, repo SaltLoader, logger *slog.Logger, writer io.Writer) error {
	salt, err := repo.LoadSalt(ctx)
	if err != nil {
		switch {
		case errors.Is(err, secretsDomain.ErrStateNotFound):
			return fmt.Errorf("salt file is missing, a new one will be generated on next start: %w", err)
		case errors.Is(err, cryptoDomain.ErrInvalidSaltSize):
			return fmt.Errorf("salt file is malformed, it will be replaced on next start: %w", err)
		default:
			return fmt.Errorf("failed to read salt: %w", err)
		}
	}
	size := len(salt)
	cryptoDomain.Zero(salt)

	logger.Info("salt verified", slog.Int("size", size))
	_, err = fmt.Fprintf(writer, "Salt is valid (%d bytes)\n", size)
	return err
}
