package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// CacheObserver is the read-only view of the cache that the gauges observe.
type CacheObserver interface {
	KeyVersion() int
	Keys() []string
	State() secretsDomain.State
}

// RegisterCacheGauges registers gauges sampled on every scrape:
// <namespace>_key_version, <namespace>_cache_entries and <namespace>_cache_ready.
func RegisterCacheGauges(meterProvider metric.MeterProvider, namespace string, cache CacheObserver) error {
	meter := meterProvider.Meter(namespace)

	keyVersion, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_key_version", namespace),
		metric.WithDescription("Current master key version"),
	)
	if err != nil {
		return fmt.Errorf("failed to create key version gauge: %w", err)
	}

	entries, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_cache_entries", namespace),
		metric.WithDescription("Number of encrypted entries held in memory"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache entries gauge: %w", err)
	}

	ready, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_cache_ready", namespace),
		metric.WithDescription("1 when the secrets cache is initialized, 0 otherwise"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache ready gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(keyVersion, int64(cache.KeyVersion()))
		o.ObserveInt64(entries, int64(len(cache.Keys())))
		var readyValue int64
		if cache.State() == secretsDomain.StateReady {
			readyValue = 1
		}
		o.ObserveInt64(ready, readyValue)
		return nil
	}, keyVersion, entries, ready)
	if err != nil {
		return fmt.Errorf("failed to register cache gauges: %w", err)
	}
	return nil
}
