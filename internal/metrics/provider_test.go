package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape returns the exposition text served by p.
func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewProvider(t *testing.T) {
	t.Run("Success_CreateProviderWithNamespace", func(t *testing.T) {
		provider, err := NewProvider("secretcache")

		require.NoError(t, err)
		assert.Equal(t, "secretcache", provider.Namespace())
		assert.NotNil(t, provider.MeterProvider())
		assert.NotNil(t, provider.registry)
	})

	t.Run("Success_ProvidersDoNotShareRegistries", func(t *testing.T) {
		first, err := NewProvider("first")
		require.NoError(t, err)
		second, err := NewProvider("second")
		require.NoError(t, err)

		bm, err := NewBusinessMetrics(first.MeterProvider(), "first")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), "secrets", "secret_get", "success")

		assert.Contains(t, scrape(t, first), "first_operations_total")
		assert.NotContains(t, scrape(t, second), "first_operations_total")
	})
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success_ShutdownProvider", func(t *testing.T) {
		provider, err := NewProvider("secretcache")
		require.NoError(t, err)

		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("Success_ShutdownNilProvider", func(t *testing.T) {
		provider := &Provider{}
		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
