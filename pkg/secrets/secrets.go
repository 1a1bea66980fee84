package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrSecretNotFound is returned when no store holds the named secret
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidName is returned for an empty secret name
	ErrInvalidName = errors.New("secret name is required")

	// ErrStoreUnavailable is returned by stores that cannot perform an operation
	ErrStoreUnavailable = errors.New("secret store unavailable")
)

// Store is the interface for retrieving and managing named secrets
type Store interface {
	// Get retrieves the value of a named secret
	Get(name string) (string, error)

	// Set stores a named secret
	Set(name, value string) error

	// Delete removes a named secret
	Delete(name string) error
}

// Manager resolves secrets through a chain of stores with fallback:
// system keychain first, then an encrypted file, then the environment.
type Manager struct {
	stores []Store
}

// NewManager creates a secret manager with the available storage backends
func NewManager() (*Manager, error) {
	var stores []Store

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "secrets.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Get returns the secret from the first store that has it
func (m *Manager) Get(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}

	for _, store := range m.stores {
		if value, err := store.Get(name); err == nil && value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// Set stores the secret using the first store that accepts it
func (m *Manager) Set(name, value string) error {
	if name == "" {
		return ErrInvalidName
	}
	if value == "" {
		return errors.New("secret value is required")
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(name, value); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store secret: %w", lastErr)
	}
	return errors.New("no available secret stores")
}

// Delete removes the secret from every store that has it
func (m *Manager) Delete(name string) error {
	if name == "" {
		return ErrInvalidName
	}

	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}

	if !deleted {
		return fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return nil
}

// getConfigDir returns the directory for likevault configuration data
func getConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "likevault"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "likevault"), nil
}
