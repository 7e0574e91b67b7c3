// Package secrets keeps deploy secrets in the OS keychain so they do not
// have to live in plaintext .env files.
package secrets

import (
	"errors"
	"fmt"
	"runtime"
	"slices"

	"github.com/99designs/keyring"
)

const keychainService = "w3deploy"

var (
	// ErrNotAllowed is returned for variables that are not secrets.
	ErrNotAllowed = errors.New("variable cannot be stored in the keychain")
	// ErrUnavailable is returned when no keychain backend could be opened.
	ErrUnavailable = errors.New("keychain not available")
)

// Store wraps OS keychain access for a fixed set of variable names.
type Store struct {
	ring    keyring.Keyring
	allowed []string
}

// Open returns a store backed by the OS keychain that accepts the given
// variable names.
func Open(allowed []string) *Store {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, err = keyring.Open(keyring.Config{
			ServiceName:     keychainService,
			AllowedBackends: []keyring.BackendType{keyring.FileBackend},
		})
		if err != nil {
			ring = nil
		}
	}
	return New(ring, allowed)
}

// New wraps an already opened keyring. A nil ring yields a store whose
// writes fail and whose lookups miss.
func New(ring keyring.Keyring, allowed []string) *Store {
	return &Store{ring: ring, allowed: append([]string(nil), allowed...)}
}

// Set stores value under the variable name key.
func (s *Store) Set(key, value string) error {
	if !slices.Contains(s.allowed, key) {
		return fmt.Errorf("%w: %s", ErrNotAllowed, key)
	}
	if s.ring == nil {
		return ErrUnavailable
	}
	if err := s.ring.Set(keyring.Item{Key: itemKey(key), Data: []byte(value)}); err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

// Get returns the stored value of key.
func (s *Store) Get(key string) (string, error) {
	if s.ring == nil {
		return "", ErrUnavailable
	}
	item, err := s.ring.Get(itemKey(key))
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Remove deletes the stored value of key.
func (s *Store) Remove(key string) error {
	if s.ring == nil {
		return ErrUnavailable
	}
	if err := s.ring.Remove(itemKey(key)); err != nil {
		return fmt.Errorf("keychain remove: %w", err)
	}
	return nil
}

// Lookup makes the store usable as an env.Source. Only allowed names are
// looked up; any keychain error counts as a miss.
func (s *Store) Lookup(key string) (string, bool) {
	if s.ring == nil || !slices.Contains(s.allowed, key) {
		return "", false
	}
	v, err := s.Get(key)
	if err != nil {
		return "", false
	}
	return v, true
}

func itemKey(name string) string { return keychainService + "." + name }
