// Package mocks provides mock implementations for testing secrets cache consumers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// MockSecretsCache is a mock implementation of SecretsCache for testing.
type MockSecretsCache struct {
	mock.Mock
}

// Initialize mocks the Initialize method of SecretsCache.
func (m *MockSecretsCache) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Set mocks the Set method of SecretsCache.
func (m *MockSecretsCache) Set(ctx context.Context, name, plaintext string) error {
	args := m.Called(ctx, name, plaintext)
	return args.Error(0)
}

// Get mocks the Get method of SecretsCache.
func (m *MockSecretsCache) Get(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Has mocks the Has method of SecretsCache.
func (m *MockSecretsCache) Has(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

// Keys mocks the Keys method of SecretsCache.
func (m *MockSecretsCache) Keys() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// Delete mocks the Delete method of SecretsCache.
func (m *MockSecretsCache) Delete(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

// Clear mocks the Clear method of SecretsCache.
func (m *MockSecretsCache) Clear() {
	m.Called()
}

// KeyVersion mocks the KeyVersion method of SecretsCache.
func (m *MockSecretsCache) KeyVersion() int {
	args := m.Called()
	return args.Int(0)
}

// RotationMetadata mocks the RotationMetadata method of SecretsCache.
func (m *MockSecretsCache) RotationMetadata() (secretsDomain.RotationMetadata, error) {
	args := m.Called()
	return args.Get(0).(secretsDomain.RotationMetadata), args.Error(1)
}

// CheckRotation mocks the CheckRotation method of SecretsCache.
func (m *MockSecretsCache) CheckRotation(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// Rotate mocks the Rotate method of SecretsCache.
func (m *MockSecretsCache) Rotate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// State mocks the State method of SecretsCache.
func (m *MockSecretsCache) State() secretsDomain.State {
	args := m.Called()
	return args.Get(0).(secretsDomain.State)
}

// Close mocks the Close method of SecretsCache.
func (m *MockSecretsCache) Close() {
	m.Called()
}
