package app

import (
	"fmt"

	"github.com/allisson/secretcache/internal/metrics"
	secretsRepository "github.com/allisson/secretcache/internal/secrets/repository"
	secretsService "github.com/allisson/secretcache/internal/secrets/service"
	secretsUseCase "github.com/allisson/secretcache/internal/secrets/usecase"
)

// StateRepository returns the file-backed store for the salt and rotation metadata.
func (c *Container) StateRepository() (secretsUseCase.StateRepository, error) {
	var err error
	c.stateRepositoryInit.Do(func() {
		c.stateRepository, err = c.initStateRepository()
		if err != nil {
			c.initErrors["stateRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["stateRepository"]; exists {
		return nil, storedErr
	}
	return c.stateRepository, nil
}

// EntropyProvider returns the machine fingerprint used as the passphrase base.
func (c *Container) EntropyProvider() secretsUseCase.EntropyProvider {
	c.entropyProviderInit.Do(func() {
		if c.entropyProvider == nil {
			c.entropyProvider = secretsService.NewMachineEntropy()
		}
	})
	return c.entropyProvider
}

// SetEntropyProvider replaces the machine fingerprint. It must be called
// before the secrets cache is first requested.
func (c *Container) SetEntropyProvider(provider secretsUseCase.EntropyProvider) {
	c.entropyProviderInit.Do(func() {
		c.entropyProvider = provider
	})
}

// SecretsCache returns the uninitialized secrets cache, wrapped with metrics.
// Callers run Initialize before Set and Get.
func (c *Container) SecretsCache() (secretsUseCase.SecretsCache, error) {
	var err error
	c.secretsCacheInit.Do(func() {
		c.secretsCache, err = c.initSecretsCache()
		if err != nil {
			c.initErrors["secretsCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretsCache"]; exists {
		return nil, storedErr
	}
	return c.secretsCache, nil
}

func (c *Container) initStateRepository() (secretsUseCase.StateRepository, error) {
	if c.config.StateDir == "" {
		return nil, fmt.Errorf("state directory is not configured")
	}
	return secretsRepository.NewFileStateRepository(c.config.StateDir), nil
}

func (c *Container) initSecretsCache() (secretsUseCase.SecretsCache, error) {
	repo, err := c.StateRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get state repository for secrets cache: %w", err)
	}

	deriver, err := c.KeyDeriver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key deriver for secrets cache: %w", err)
	}

	cipher, err := c.BlobCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob cipher for secrets cache: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for secrets cache: %w", err)
	}

	cacheConfig := secretsUseCase.Config{
		RotationPeriod:      c.config.KeyRotationPeriod,
		GracePeriod:         c.config.KeyGracePeriod,
		ReencryptOnRotation: c.config.ReencryptOnRotation,
	}

	cache := secretsUseCase.NewSecretsCache(
		cacheConfig,
		repo,
		deriver,
		cipher,
		c.EntropyProvider(),
		c.Logger(),
	)

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for secrets cache: %w", err)
	}
	if provider != nil {
		if err := metrics.RegisterCacheGauges(provider.MeterProvider(), provider.Namespace(), cache); err != nil {
			return nil, fmt.Errorf("failed to register secrets cache gauges: %w", err)
		}
	}

	return secretsUseCase.NewSecretsCacheWithMetrics(cache, businessMetrics), nil
}
