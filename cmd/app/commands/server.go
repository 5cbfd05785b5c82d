package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/secretcache/internal/app"
	secretsUseCase "github.com/allisson/secretcache/internal/secrets/usecase"
)

const shutdownTimeout = 10 * time.Second

// RunServer initializes the secrets cache, then runs the key rotation worker
// and the ops server until SIGTERM, ctx cancellation or a fatal error.
// The cache is closed on the way out, dropping entries and key material.
func RunServer(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	cache, err := container.SecretsCache()
	if err != nil {
		return fmt.Errorf("failed to create secrets cache: %w", err)
	}

	// Setup graceful shutdown; SIGINT is left to memguard, which purges and exits
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	// Key derivation dominates startup; a signal aborts the wait
	if err := cache.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize secrets cache: %w", err)
	}
	logger.Info("secrets cache ready", slog.Int("key_version", cache.KeyVersion()))

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize ops server: %w", err)
	}

	// Start workers in goroutines
	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("ops server error: %w", err)
		}
	}()
	go func() {
		err := secretsUseCase.RunRotationWorker(ctx, cache, cfg.RotationCheckInterval, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			serverErr <- fmt.Errorf("rotation worker error: %w", err)
		}
	}()

	// Wait for shutdown signal or worker error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ops server shutdown: %w", err)
		}
	case err := <-serverErr:
		logger.Error("worker error, initiating shutdown", slog.Any("error", err))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		shutdownErrors := []error{err}
		if shutErr := server.Shutdown(shutdownCtx); shutErr != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("ops server shutdown: %w", shutErr))
		}

		return errors.Join(shutdownErrors...)
	}

	return nil
}
