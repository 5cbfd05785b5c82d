package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// MetadataLoader reads the persisted key rotation metadata.
type MetadataLoader interface {
	LoadMetadata(ctx context.Context) (secretsDomain.RotationMetadata, error)
}

type statusReport struct {
	Version              int        `json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	RotatedAt            *time.Time `json:"rotated_at,omitempty"`
	PreviousKeyExpiresAt *time.Time `json:"previous_key_expires_at,omitempty"`
	NextRotationAt       time.Time  `json:"next_rotation_at"`
	RotationDue          bool       `json:"rotation_due"`
	InGracePeriod        bool       `json:"in_grace_period"`
}

// RunStatus prints the persisted key rotation state without deriving any key.
// It reads the metadata file only, so it is safe to run next to a live process.
func RunStatus(
	ctx context.Context,
	repo MetadataLoader,
	logger *slog.Logger,
	writer io.Writer,
	rotationPeriod time.Duration,
	now time.Time,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	metadata, err := repo.LoadMetadata(ctx)
	if err != nil {
		if errors.Is(err, secretsDomain.ErrStateNotFound) {
			return fmt.Errorf("no key rotation metadata found, the cache has never been initialized: %w", err)
		}
		return fmt.Errorf("failed to load key rotation metadata: %w", err)
	}

	report := statusReport{
		Version:              metadata.Version,
		CreatedAt:            metadata.CreatedAt,
		RotatedAt:            metadata.RotatedAt,
		PreviousKeyExpiresAt: metadata.PreviousKeyExpiredAt,
		NextRotationAt:       metadata.CreatedAt.Add(rotationPeriod),
		RotationDue:          metadata.RotationDue(now, rotationPeriod),
		InGracePeriod:        metadata.InGracePeriod(now),
	}

	logger.Debug("key rotation status loaded", slog.Int("key_version", report.Version))

	if format == "json" {
		return writeJSON(writer, report)
	}
	return outputStatusText(writer, report)
}

func outputStatusText(w io.Writer, r statusReport) error {
	var b []byte
	b = fmt.Appendf(b, "Key version:        %d\n", r.Version)
	b = fmt.Appendf(b, "Key created at:     %s\n", r.CreatedAt.Format(time.RFC3339))
	if r.RotatedAt != nil {
		b = fmt.Appendf(b, "Last rotation:      %s\n", r.RotatedAt.Format(time.RFC3339))
	} else {
		b = fmt.Appendf(b, "Last rotation:      never\n")
	}
	if r.PreviousKeyExpiresAt != nil {
		b = fmt.Appendf(b, "Previous key until: %s\n", r.PreviousKeyExpiresAt.Format(time.RFC3339))
	}
	b = fmt.Appendf(b, "Next rotation at:   %s\n", r.NextRotationAt.Format(time.RFC3339))
	b = fmt.Appendf(b, "Rotation due:       %t\n", r.RotationDue)
	b = fmt.Appendf(b, "In grace period:    %t\n", r.InGracePeriod)
	_, err := w.Write(b)
	return err
}
