package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	secretsUseCase "github.com/allisson/secretcache/internal/secrets/usecase"
)

// RunRotate initializes the cache from the persisted state and forces a
// master key rotation regardless of key age.
//
// Entries live in memory only, so a one-shot process has nothing to
// re-encrypt: the command advances the key version and opens a fresh grace
// window for the next process that starts on this state directory.
func RunRotate(
	ctx context.Context,
	cache secretsUseCase.SecretsCache,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if err := cache.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize secrets cache: %w", err)
	}
	previousVersion := cache.KeyVersion()

	if err := cache.Rotate(ctx); err != nil {
		return fmt.Errorf("failed to rotate master key: %w", err)
	}

	metadata, err := cache.RotationMetadata()
	if err != nil {
		return fmt.Errorf("failed to read rotation metadata: %w", err)
	}

	logger.Info("master key rotated",
		slog.Int("previous_version", previousVersion),
		slog.Int("key_version", metadata.Version),
	)

	if format == "json" {
		result := map[string]any{
			"previous_version": previousVersion,
			"key_version":      metadata.Version,
		}
		if metadata.PreviousKeyExpiredAt != nil {
			result["previous_key_expires_at"] = metadata.PreviousKeyExpiredAt.Format(time.RFC3339)
		}
		return writeJSON(writer, result)
	}

	_, err = fmt.Fprintf(writer, "Master key rotated: version %d -> %d\n", previousVersion, metadata.Version)
	if err != nil {
		return err
	}
	if metadata.PreviousKeyExpiredAt != nil {
		_, err = fmt.Fprintf(writer, "Previous key usable until %s\n", metadata.PreviousKeyExpiredAt.Format(time.RFC3339))
	}
	return err
}
