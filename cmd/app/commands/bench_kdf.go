package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
	cryptoService "github.com/allisson/secretcache/internal/crypto/service"
)

// RunBenchKDF times key derivation with the configured parameters. Startup and
// every rotation pay this cost once per derived key.
func RunBenchKDF(
	deriver cryptoService.KeyDeriver,
	logger *slog.Logger,
	writer io.Writer,
	rounds int,
	format string,
) error {
	if rounds < 1 {
		return fmt.Errorf("rounds must be a positive number, got: %d", rounds)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	salt, err := deriver.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	var total time.Duration
	for i := range rounds {
		start := time.Now()
		key, err := deriver.Derive(fmt.Sprintf("bench|v%d", i+1), salt)
		if err != nil {
			return fmt.Errorf("failed to derive key: %w", err)
		}
		total += time.Since(start)
		cryptoDomain.Zero(key)
	}
	average := total / time.Duration(rounds)
	kdf := deriver.Config()

	logger.Info("kdf benchmark completed",
		slog.Int("iterations", kdf.Iterations),
		slog.Int("rounds", rounds),
		slog.Duration("average", average),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"algorithm":  kdf.Algorithm,
			"hash":       kdf.HashFunction,
			"iterations": kdf.Iterations,
			"rounds":     rounds,
			"average_ms": float64(average.Microseconds()) / 1000,
			"total_ms":   float64(total.Microseconds()) / 1000,
		})
	}

	_, err = fmt.Fprintf(
		writer,
		"%s-%s with %d iterations: %s average over %d round(s)\n",
		kdf.Algorithm,
		kdf.HashFunction,
		kdf.Iterations,
		average.Round(time.Microsecond),
		rounds,
	)
	return err
}
