package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/secretcache/internal/errors"
	"github.com/allisson/secretcache/internal/metrics"
	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

const metricsDomain = "secrets"

// secretsCacheWithMetrics decorates SecretsCache with metrics instrumentation.
type secretsCacheWithMetrics struct {
	next    SecretsCache
	metrics metrics.BusinessMetrics
}

// NewSecretsCacheWithMetrics wraps a SecretsCache with metrics recording.
func NewSecretsCacheWithMetrics(cache SecretsCache, m metrics.BusinessMetrics) SecretsCache {
	return &secretsCacheWithMetrics{
		next:    cache,
		metrics: m,
	}
}

func (s *secretsCacheWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	s.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	s.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Initialize records metrics for cache initialization.
func (s *secretsCacheWithMetrics) Initialize(ctx context.Context) error {
	start := time.Now()
	err := s.next.Initialize(ctx)
	s.record(ctx, "cache_initialize", start, statusOf(err))
	return err
}

// Set records metrics for secret writes.
func (s *secretsCacheWithMetrics) Set(ctx context.Context, name, plaintext string) error {
	start := time.Now()
	err := s.next.Set(ctx, name, plaintext)
	s.record(ctx, "secret_set", start, statusOf(err))
	return err
}

// Get records metrics for secret reads. Misses and integrity failures get
// their own status.
func (s *secretsCacheWithMetrics) Get(ctx context.Context, name string) (string, bool, error) {
	start := time.Now()
	value, ok, err := s.next.Get(ctx, name)

	status := statusOf(err)
	switch {
	case apperrors.Is(err, secretsDomain.ErrTampered):
		status = "tampered"
	case err == nil && !ok:
		status = "not_found"
	}
	s.record(ctx, "secret_get", start, status)

	return value, ok, err
}

// Has delegates without recording.
func (s *secretsCacheWithMetrics) Has(name string) bool {
	return s.next.Has(name)
}

// Keys delegates without recording.
func (s *secretsCacheWithMetrics) Keys() []string {
	return s.next.Keys()
}

// Delete delegates without recording.
func (s *secretsCacheWithMetrics) Delete(name string) bool {
	return s.next.Delete(name)
}

// Clear delegates without recording.
func (s *secretsCacheWithMetrics) Clear() {
	s.next.Clear()
}

// KeyVersion delegates without recording.
func (s *secretsCacheWithMetrics) KeyVersion() int {
	return s.next.KeyVersion()
}

// RotationMetadata delegates without recording.
func (s *secretsCacheWithMetrics) RotationMetadata() (secretsDomain.RotationMetadata, error) {
	return s.next.RotationMetadata()
}

// CheckRotation records metrics for rotation checks; a check that rotated is
// recorded with status "rotated".
func (s *secretsCacheWithMetrics) CheckRotation(ctx context.Context) (bool, error) {
	start := time.Now()
	rotated, err := s.next.CheckRotation(ctx)

	status := statusOf(err)
	if rotated {
		status = "rotated"
	}
	s.record(ctx, "key_rotation_check", start, status)

	return rotated, err
}

// Rotate records metrics for forced rotations.
func (s *secretsCacheWithMetrics) Rotate(ctx context.Context) error {
	start := time.Now()
	err := s.next.Rotate(ctx)
	s.record(ctx, "key_rotate", start, statusOf(err))
	return err
}

// State delegates without recording.
func (s *secretsCacheWithMetrics) State() secretsDomain.State {
	return s.next.State()
}

// Close delegates without recording.
func (s *secretsCacheWithMetrics) Close() {
	s.next.Close()
}
