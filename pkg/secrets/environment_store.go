package secrets

import (
	"os"
	"strings"
)

// EnvironmentStore implements Store by reading environment variables.
// A secret named "likevault/bearer-token" maps to
// LIKEVAULT_SECRET_BEARER_TOKEN. This store is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based secret store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Get retrieves a secret from the environment
func (e *EnvironmentStore) Get(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}

	value := os.Getenv(envVarName(name))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// Set is not supported for environment variables
func (e *EnvironmentStore) Set(name, value string) error {
	return ErrStoreUnavailable
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// envVarName converts a secret name into its environment variable form
func envVarName(name string) string {
	cleaned := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
	cleaned = strings.ToUpper(cleaned)
	if strings.HasPrefix(cleaned, "LIKEVAULT_") {
		return "LIKEVAULT_SECRET_" + strings.TrimPrefix(cleaned, "LIKEVAULT_")
	}
	return "LIKEVAULT_SECRET_" + cleaned
}
