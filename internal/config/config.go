// Package config provides application configuration through environment variables.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
)

// DefaultStateDirName is the state directory created under the user's home.
const DefaultStateDirName = ".secretcache"

// Config holds all application configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	// StateDir holds the salt and key rotation metadata files.
	StateDir string

	// KDFIterations is the PBKDF2 iteration count. Values below 600000 are rejected.
	KDFIterations int
	// CipherAlgorithm encrypts new entries ("aes-gcm" or "chacha20-poly1305").
	CipherAlgorithm string

	// KeyRotationPeriod is the master key age that triggers a rotation.
	KeyRotationPeriod time.Duration
	// KeyGracePeriod is how long the previous key stays usable after a rotation.
	KeyGracePeriod time.Duration
	// ReencryptOnRotation re-encrypts live entries under the new key at rotation time.
	ReencryptOnRotation bool
	// RotationCheckInterval is how often a long-running process checks key age.
	RotationCheckInterval time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string
	// MetricsHost is the address the ops server binds to.
	MetricsHost string
	// MetricsPort is the port of the ops server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// State
		StateDir: env.GetString("STATE_DIR", defaultStateDir()),

		// Cryptography
		KDFIterations:   env.GetInt("KDF_ITERATIONS", cryptoDomain.MinIterations),
		CipherAlgorithm: env.GetString("CIPHER_ALGORITHM", string(cryptoDomain.AESGCM)),

		// Key rotation
		KeyRotationPeriod:     env.GetDuration("KEY_ROTATION_PERIOD_HOURS", 168, time.Hour),
		KeyGracePeriod:        env.GetDuration("KEY_GRACE_PERIOD_HOURS", 24, time.Hour),
		ReencryptOnRotation:   env.GetBool("REENCRYPT_ON_ROTATION", false),
		RotationCheckInterval: env.GetDuration("ROTATION_CHECK_INTERVAL_MINUTES", 60, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "secretcache"),
		MetricsHost:      env.GetString("METRICS_HOST", "0.0.0.0"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate rejects settings the cache must not start with. Field errors are
// joined sorted by field name and keep their causes, so callers can match
// cryptoDomain.ErrIterationsTooLow or cryptoDomain.ErrUnsupportedAlgorithm with errors.Is.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.StateDir,
			validation.Required.Error("must not be empty"),
		),
		validation.Field(&c.KDFIterations,
			validation.By(validateIterations),
		),
		validation.Field(&c.CipherAlgorithm,
			validation.By(validateAlgorithm),
		),
		validation.Field(&c.KeyRotationPeriod,
			validation.Required.Error("must be positive"),
			validation.Min(time.Duration(0)).Exclusive().Error("must be positive"),
		),
		validation.Field(&c.KeyGracePeriod,
			validation.Min(time.Duration(0)).Error("must not be negative"),
		),
		validation.Field(&c.RotationCheckInterval,
			validation.Required.Error("must be positive"),
			validation.Min(time.Duration(0)).Exclusive().Error("must be positive"),
		),
	)

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	joined := make([]error, 0, len(fieldErrs))
	for _, name := range slices.Sorted(maps.Keys(fieldErrs)) {
		joined = append(joined, fmt.Errorf("%s: %w", name, fieldErrs[name]))
	}
	return errors.Join(joined...)
}

func validateIterations(value interface{}) error {
	iterations, ok := value.(int)
	if !ok {
		return validation.NewError("validation_iterations_type", "must be an integer")
	}
	if iterations < cryptoDomain.MinIterations {
		return fmt.Errorf(
			"%w: got %d, minimum is %d",
			cryptoDomain.ErrIterationsTooLow,
			iterations,
			cryptoDomain.MinIterations,
		)
	}
	return nil
}

func validateAlgorithm(value interface{}) error {
	alg, ok := value.(string)
	if !ok {
		return validation.NewError("validation_algorithm_type", "must be a string")
	}

	_, err := cryptoDomain.ParseAlgorithm(alg)
	return err
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultStateDirName
	}
	return filepath.Join(home, DefaultStateDirName)
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
