package usecase

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/secretcache/internal/crypto/domain"
	cryptoService "github.com/allisson/secretcache/internal/crypto/service"
	apperrors "github.com/allisson/secretcache/internal/errors"
	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// Config holds secrets cache configuration.
type Config struct {
	// RotationPeriod is the key age after which the master key is rotated.
	RotationPeriod time.Duration

	// GracePeriod is how long the previous key stays usable for decryption.
	GracePeriod time.Duration

	// ReencryptOnRotation re-encrypts every live entry under the new key during
	// a rotation. When false, entries written before a rotation become
	// unreadable once the grace period ends.
	ReencryptOnRotation bool
}

// DefaultConfig returns a 7-day rotation period, a 24-hour grace period and no re-encryption.
func DefaultConfig() Config {
	return Config{
		RotationPeriod: secretsDomain.DefaultRotationPeriod,
		GracePeriod:    secretsDomain.DefaultGracePeriod,
	}
}

// derivedKeys is the shared result of one derivation round.
type derivedKeys struct {
	current  *memguard.Enclave
	previous *memguard.Enclave
}

// SecretsCacheUseCase implements SecretsCache.
//
// Lifecycle operations (Initialize, rotation, Close) are serialized by
// lifecycleMu and run the slow key derivation without blocking readers.
// mu guards the entry map, key ring and metadata: Set and rotation hold it
// exclusively, Get holds it shared so a reader never sees a torn blob.
type SecretsCacheUseCase struct {
	config  Config
	repo    StateRepository
	deriver cryptoService.KeyDeriver
	cipher  cryptoService.BlobCipher
	entropy EntropyProvider
	logger  *slog.Logger
	now     func() time.Time

	lifecycleMu sync.Mutex
	mu          sync.RWMutex
	state       atomic.Int32
	entries     map[string][]byte
	ring        *secretsDomain.KeyRing
	metadata    secretsDomain.RotationMetadata
	passphrase  string
	salt        []byte

	derivations singleflight.Group
	tamperLog   *rate.Limiter
}

// NewSecretsCache creates an uninitialized secrets cache.
func NewSecretsCache(
	config Config,
	repo StateRepository,
	deriver cryptoService.KeyDeriver,
	cipher cryptoService.BlobCipher,
	entropy EntropyProvider,
	logger *slog.Logger,
) *SecretsCacheUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SecretsCacheUseCase{
		config:    config,
		repo:      repo,
		deriver:   deriver,
		cipher:    cipher,
		entropy:   entropy,
		logger:    logger,
		now:       time.Now,
		entries:   make(map[string][]byte),
		tamperLog: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// State returns the lifecycle state.
func (uc *SecretsCacheUseCase) State() secretsDomain.State {
	return secretsDomain.State(uc.state.Load())
}

func (uc *SecretsCacheUseCase) ready() bool {
	return uc.State() == secretsDomain.StateReady
}

// Initialize brings the cache to Ready.
//
// Any failure leaves the cache Uninitialized and is returned wrapped in
// ErrInitializationFailed. Cancelling ctx abandons the wait; the derivation
// keeps running in the background and a later Initialize joins it.
func (uc *SecretsCacheUseCase) Initialize(ctx context.Context) error {
	uc.lifecycleMu.Lock()
	defer uc.lifecycleMu.Unlock()

	if uc.ready() {
		return nil
	}

	uc.state.Store(int32(secretsDomain.StateInitializing))
	start := time.Now()

	if err := uc.initialize(ctx); err != nil {
		uc.state.Store(int32(secretsDomain.StateUninitialized))
		uc.logger.Error("secrets cache initialization failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", secretsDomain.ErrInitializationFailed, err)
	}

	uc.state.Store(int32(secretsDomain.StateReady))
	uc.logger.Info("secrets cache ready",
		slog.Int("key_version", uc.metadata.Version),
		slog.Bool("previous_key", uc.ring.PreviousVersion() != 0),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (uc *SecretsCacheUseCase) initialize(ctx context.Context) error {
	if err := uc.repo.EnsureDir(ctx); err != nil {
		return err
	}

	salt, err := uc.loadOrCreateSalt(ctx)
	if err != nil {
		return err
	}

	metadata, persist, err := uc.loadOrCreateMetadata(ctx)
	if err != nil {
		return err
	}

	passphrase, err := uc.entropy.Entropy()
	if err != nil {
		return apperrors.Wrap(err, "failed to collect machine entropy")
	}

	// Rotate a key that aged past the period while the process was down
	now := uc.now()
	var rotationID string
	if metadata.RotationDue(now, uc.config.RotationPeriod) {
		rotationID = newRotationID()
		uc.logger.Info("master key expired, rotating",
			slog.String("rotation_id", rotationID),
			slog.Int("from_version", metadata.Version),
			slog.Time("created_at", metadata.CreatedAt),
		)
		metadata = metadata.Rotate(now, uc.config.GracePeriod)
		persist = true
	}

	withPrevious := metadata.InGracePeriod(now)
	keys, err := uc.deriveKeys(ctx, passphrase, salt, metadata.Version, withPrevious)
	if err != nil {
		return err
	}

	ring, err := secretsDomain.NewKeyRing(metadata.Version, keys.current)
	if err != nil {
		return apperrors.Wrap(err, "failed to build key ring")
	}
	if withPrevious {
		if err := ring.SetPrevious(metadata.Version-1, keys.previous, *metadata.PreviousKeyExpiredAt); err != nil {
			return apperrors.Wrap(err, "failed to build key ring")
		}
	}

	// Metadata is persisted only once every key it describes has been derived
	if persist {
		if err := uc.repo.SaveMetadata(ctx, metadata); err != nil {
			return err
		}
	}
	if rotationID != "" {
		uc.logger.Info("master key rotated",
			slog.String("rotation_id", rotationID),
			slog.Int("key_version", metadata.Version),
			slog.Time("previous_key_expires_at", *metadata.PreviousKeyExpiredAt),
		)
	}

	uc.mu.Lock()
	uc.ring = ring
	uc.metadata = metadata
	uc.passphrase = passphrase
	uc.salt = salt
	uc.mu.Unlock()

	return nil
}

func (uc *SecretsCacheUseCase) loadOrCreateSalt(ctx context.Context) ([]byte, error) {
	salt, err := uc.repo.LoadSalt(ctx)
	switch {
	case err == nil:
		return salt, nil
	case apperrors.Is(err, secretsDomain.ErrStateNotFound):
		uc.logger.Info("no installation salt found, generating one")
	case apperrors.Is(err, cryptoDomain.ErrInvalidSaltSize):
		uc.logger.Error("installation salt is malformed, replacing it; keys derived from the old salt cannot be reproduced",
			slog.Any("error", err),
		)
	default:
		return nil, err
	}

	salt, err = uc.deriver.GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := uc.repo.SaveSalt(ctx, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// loadOrCreateMetadata returns the persisted metadata, or fresh metadata and
// true when it must be written.
func (uc *SecretsCacheUseCase) loadOrCreateMetadata(
	ctx context.Context,
) (secretsDomain.RotationMetadata, bool, error) {
	metadata, err := uc.repo.LoadMetadata(ctx)
	switch {
	case err == nil:
		return metadata, false, nil
	case apperrors.Is(err, secretsDomain.ErrStateNotFound):
		uc.logger.Info("no key rotation metadata found, starting at version 1")
	case apperrors.Is(err, secretsDomain.ErrInvalidMetadata):
		uc.logger.Error("key rotation metadata is malformed, resetting to version 1", slog.Any("error", err))
	default:
		return secretsDomain.RotationMetadata{}, false, err
	}
	return secretsDomain.NewRotationMetadata(uc.now()), true, nil
}

// deriveKeys derives the key for version, and for version-1 when withPrevious
// is set, on background goroutines. Concurrent or retried calls with the same
// passphrase, salt and version share one derivation.
func (uc *SecretsCacheUseCase) deriveKeys(
	ctx context.Context,
	passphrase string,
	salt []byte,
	version int,
	withPrevious bool,
) (*derivedKeys, error) {
	digest := sha256.Sum256([]byte(passphrase))
	flightKey := fmt.Sprintf("%x/%x/%d/%t", digest, salt, version, withPrevious)
	ch := uc.derivations.DoChan(flightKey, func() (any, error) {
		var (
			keys derivedKeys
			g    errgroup.Group
		)
		g.Go(func() error {
			sealed, err := uc.deriveSealed(passphrase, salt, version)
			keys.current = sealed
			return err
		})
		if withPrevious {
			g.Go(func() error {
				sealed, err := uc.deriveSealed(passphrase, salt, version-1)
				keys.previous = sealed
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &keys, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), "key derivation abandoned")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*derivedKeys), nil
	}
}

// deriveSealed derives the key of one version and seals it. Each version uses
// its own passphrase so a rotation yields an unrelated key.
func (uc *SecretsCacheUseCase) deriveSealed(passphrase string, salt []byte, version int) (*memguard.Enclave, error) {
	key, err := uc.deriver.Derive(fmt.Sprintf("%s|v%d", passphrase, version), salt)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to derive key version %d", version)
	}
	return secretsDomain.SealKey(key)
}

// Set encrypts plaintext under the current key with name as associated data.
func (uc *SecretsCacheUseCase) Set(ctx context.Context, name, plaintext string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !uc.ready() {
		return secretsDomain.ErrNotInitialized
	}

	key, err := uc.ring.OpenCurrent()
	if err != nil {
		return apperrors.Wrap(err, "failed to open master key")
	}
	defer key.Destroy()

	blob, err := uc.seal(key.Bytes(), name, []byte(plaintext))
	if err != nil {
		return err
	}
	uc.entries[name] = blob
	return nil
}

// seal encrypts plaintext and wipes it.
func (uc *SecretsCacheUseCase) seal(key []byte, name string, plaintext []byte) ([]byte, error) {
	defer cryptoDomain.Zero(plaintext)

	blob, err := uc.cipher.Seal(plaintext, key, []byte(name))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt secret")
	}
	return blob, nil
}

// Get decrypts the entry under name, falling back to the previous key within
// its grace window.
func (uc *SecretsCacheUseCase) Get(ctx context.Context, name string) (string, bool, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if !uc.ready() {
		return "", false, secretsDomain.ErrNotInitialized
	}

	blob, ok := uc.entries[name]
	if !ok {
		return "", false, nil
	}

	plaintext, err := uc.open(name, blob, uc.now())
	if err != nil {
		if apperrors.Is(err, secretsDomain.ErrTampered) && uc.tamperLog.Allow() {
			uc.logger.Error("secret entry failed integrity check",
				slog.String("name", name),
				slog.Int("key_version", uc.ring.CurrentVersion()),
				slog.Bool("previous_key", uc.ring.HasPrevious(uc.now())),
			)
		}
		return "", false, err
	}
	defer cryptoDomain.Zero(plaintext)

	return string(plaintext), true, nil
}

// open decrypts blob with the current key, then the previous key if it is
// still within its grace window. Callers hold mu.
func (uc *SecretsCacheUseCase) open(name string, blob []byte, now time.Time) ([]byte, error) {
	aad := []byte(name)

	current, err := uc.ring.OpenCurrent()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open master key")
	}
	plaintext, err := uc.cipher.Decrypt(blob, current.Bytes(), aad)
	current.Destroy()
	if err == nil {
		return plaintext, nil
	}

	previous, ok, openErr := uc.ring.OpenPrevious(now)
	if openErr != nil {
		return nil, apperrors.Wrap(openErr, "failed to open previous master key")
	}
	if !ok {
		return nil, fmt.Errorf("%w: entry %q: %w", secretsDomain.ErrTampered, name, err)
	}
	plaintext, err = uc.cipher.Decrypt(blob, previous.Bytes(), aad)
	previous.Destroy()
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", secretsDomain.ErrTampered, name, err)
	}
	return plaintext, nil
}

// Has reports whether an entry exists under name.
func (uc *SecretsCacheUseCase) Has(name string) bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	_, ok := uc.entries[name]
	return ok
}

// Keys returns the entry names sorted.
func (uc *SecretsCacheUseCase) Keys() []string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	names := make([]string, 0, len(uc.entries))
	for name := range uc.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Delete removes the entry under name.
func (uc *SecretsCacheUseCase) Delete(name string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	blob, ok := uc.entries[name]
	if ok {
		cryptoDomain.Zero(blob)
		delete(uc.entries, name)
	}
	return ok
}

// Clear removes every entry.
func (uc *SecretsCacheUseCase) Clear() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.clearEntries()
}

func (uc *SecretsCacheUseCase) clearEntries() {
	for _, blob := range uc.entries {
		cryptoDomain.Zero(blob)
	}
	clear(uc.entries)
}

// KeyVersion returns the persisted key version.
func (uc *SecretsCacheUseCase) KeyVersion() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return uc.metadata.Version
}

// RotationMetadata returns a copy of the persisted rotation metadata.
func (uc *SecretsCacheUseCase) RotationMetadata() (secretsDomain.RotationMetadata, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if !uc.ready() {
		return secretsDomain.RotationMetadata{}, secretsDomain.ErrNotInitialized
	}
	return uc.metadata.Clone(), nil
}

// CheckRotation releases an expired previous key and rotates the master key
// once it is older than the rotation period.
func (uc *SecretsCacheUseCase) CheckRotation(ctx context.Context) (bool, error) {
	uc.lifecycleMu.Lock()
	defer uc.lifecycleMu.Unlock()

	if !uc.ready() {
		return false, secretsDomain.ErrNotInitialized
	}

	now := uc.now()
	uc.releaseExpiredKey(now)

	if !uc.metadata.RotationDue(now, uc.config.RotationPeriod) {
		return false, nil
	}
	if err := uc.rotate(ctx, now); err != nil {
		return false, err
	}
	return true, nil
}

// Rotate rotates the master key now.
func (uc *SecretsCacheUseCase) Rotate(ctx context.Context) error {
	uc.lifecycleMu.Lock()
	defer uc.lifecycleMu.Unlock()

	if !uc.ready() {
		return secretsDomain.ErrNotInitialized
	}
	return uc.rotate(ctx, uc.now())
}

// releaseExpiredKey drops the previous key once its grace window has ended.
func (uc *SecretsCacheUseCase) releaseExpiredKey(now time.Time) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	version := uc.ring.PreviousVersion()
	if version == 0 || uc.ring.HasPrevious(now) {
		return
	}
	uc.ring.DropPrevious()
	uc.logger.Info("previous master key grace period ended, key released", slog.Int("key_version", version))
}

// rotate derives the next key, optionally re-encrypts every entry, persists
// the new metadata and only then swaps the in-memory state. Callers hold
// lifecycleMu.
func (uc *SecretsCacheUseCase) rotate(ctx context.Context, now time.Time) error {
	next := uc.metadata.Rotate(now, uc.config.GracePeriod)
	logger := uc.logger.With(
		slog.String("rotation_id", newRotationID()),
		slog.Int("from_version", uc.metadata.Version),
		slog.Int("to_version", next.Version),
	)
	logger.Info("rotating master key")

	keys, err := uc.deriveKeys(ctx, uc.passphrase, uc.salt, next.Version, false)
	if err != nil {
		logger.Error("master key rotation failed", slog.Any("error", err))
		return apperrors.Wrap(err, "failed to rotate master key")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	var entries map[string][]byte
	if uc.config.ReencryptOnRotation {
		var skipped int
		entries, skipped, err = uc.reencrypt(keys.current, now)
		if err != nil {
			logger.Error("master key rotation failed", slog.Any("error", err))
			return apperrors.Wrap(err, "failed to re-encrypt entries")
		}
		if skipped > 0 {
			logger.Warn("entries failing integrity checks were left under their old key", slog.Int("count", skipped))
		}
	}

	if err := uc.repo.SaveMetadata(ctx, next); err != nil {
		logger.Error("master key rotation failed", slog.Any("error", err))
		return apperrors.Wrap(err, "failed to persist rotation metadata")
	}

	if err := uc.ring.Promote(next.Version, keys.current, *next.PreviousKeyExpiredAt); err != nil {
		return apperrors.Wrap(err, "failed to install rotated key")
	}
	uc.metadata = next
	if entries != nil {
		uc.clearEntries()
		uc.entries = entries
	}

	logger.Info("master key rotated",
		slog.Bool("reencrypted", entries != nil),
		slog.Int("entries", len(uc.entries)),
		slog.Time("previous_key_expires_at", *next.PreviousKeyExpiredAt),
	)
	return nil
}

// reencrypt returns a copy of the entry map sealed under sealed. Entries that
// cannot be opened with the current or previous key are copied unchanged and
// counted. Callers hold mu.
func (uc *SecretsCacheUseCase) reencrypt(
	sealed *memguard.Enclave,
	now time.Time,
) (map[string][]byte, int, error) {
	key, err := sealed.Open()
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to open rotated key")
	}
	defer key.Destroy()

	out := make(map[string][]byte, len(uc.entries))
	skipped := 0
	for name, blob := range uc.entries {
		plaintext, err := uc.open(name, blob, now)
		if err != nil {
			if !apperrors.Is(err, secretsDomain.ErrTampered) {
				return nil, 0, err
			}
			out[name] = slices.Clone(blob)
			skipped++
			continue
		}
		fresh, err := uc.seal(key.Bytes(), name, plaintext)
		if err != nil {
			return nil, 0, err
		}
		out[name] = fresh
	}
	return out, skipped, nil
}

// Close forgets entries and key material and returns the cache to Uninitialized.
func (uc *SecretsCacheUseCase) Close() {
	uc.lifecycleMu.Lock()
	defer uc.lifecycleMu.Unlock()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.state.Store(int32(secretsDomain.StateUninitialized))
	uc.clearEntries()
	if uc.ring != nil {
		uc.ring.Close()
		uc.ring = nil
	}
	uc.metadata = secretsDomain.RotationMetadata{}
	uc.passphrase = ""
	uc.salt = nil
}

func newRotationID() string {
	return uuid.Must(uuid.NewV7()).String()
}
