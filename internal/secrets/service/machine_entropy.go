// Package service provides the machine entropy source the secrets cache feeds
// into key derivation.
package service

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// MachineEntropy assembles the key-derivation input from stable host
// characteristics. The string is not secret; it binds derived keys to one host.
type MachineEntropy struct {
	hostname func() (string, error)
	numCPU   func() int
}

// NewMachineEntropy creates a MachineEntropy reading the live host.
func NewMachineEntropy() *MachineEntropy {
	return &MachineEntropy{
		hostname: os.Hostname,
		numCPU:   runtime.NumCPU,
	}
}

// Entropy returns "cpus=<n>|host=<hostname>|platform=<os>/<arch>|runtime=<version>".
func (m *MachineEntropy) Entropy() (string, error) {
	host, err := m.hostname()
	if err != nil {
		return "", fmt.Errorf("failed to read hostname: %w", err)
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("failed to read hostname: empty")
	}

	return fmt.Sprintf(
		"cpus=%d|host=%s|platform=%s/%s|runtime=%s",
		m.numCPU(),
		host,
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
	), nil
}

// StaticEntropy returns a fixed entropy string. Useful for tests and for hosts
// whose characteristics change between restarts (containers with random hostnames).
type StaticEntropy string

// Entropy returns the fixed string.
func (s StaticEntropy) Entropy() (string, error) {
	return string(s), nil
}
