package commands

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/secretcache/internal/crypto/service"
)

func TestRunBenchKDF(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	deriver, err := cryptoService.NewPBKDF2KeyDeriver(cryptoService.WithIterationsUnchecked(1000))
	require.NoError(t, err)

	t.Run("text-output", func(t *testing.T) {
		var out bytes.Buffer
		err := RunBenchKDF(deriver, logger, &out, 2, "text")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "pbkdf2-sha256 with 1000 iterations")
		assert.Contains(t, out.String(), "over 2 round(s)")
	})

	t.Run("json-output", func(t *testing.T) {
		var out bytes.Buffer
		err := RunBenchKDF(deriver, logger, &out, 1, "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"iterations": 1000`)
		assert.Contains(t, out.String(), `"rounds": 1`)
		assert.Contains(t, out.String(), `"average_ms"`)
	})

	t.Run("invalid-rounds", func(t *testing.T) {
		err := RunBenchKDF(deriver, logger, &bytes.Buffer{}, 0, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rounds must be a positive number")
	})
}
