package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunRotationWorker calls CheckRotation on every tick until ctx is done, so a
// long-running process rotates its master key and releases expired previous
// keys without a restart. Errors are logged and retried on the next tick.
func RunRotationWorker(ctx context.Context, cache SecretsCache, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("invalid rotation check interval: %s", interval)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Info("starting key rotation worker", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping key rotation worker")
			return ctx.Err()
		case <-ticker.C:
			rotated, err := cache.CheckRotation(ctx)
			if err != nil {
				logger.Error("failed to check key rotation", slog.Any("error", err))
				continue
			}
			if rotated {
				logger.Info("key rotation worker rotated master key", slog.Int("key_version", cache.KeyVersion()))
			}
		}
	}
}
