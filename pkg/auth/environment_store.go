package auth

import (
	"os"
	"time"
)

// envKeys maps service slots to the environment variables that can
// supply them, in precedence order.
var envKeys = map[string][]string{
	ServiceDataAPI: {"HIKERAPI_TOKEN", "HIKERAPI_KEY"},
	ServiceLLM:     {"OPENROUTER_API_KEY"},
}

// EnvironmentStore reads credentials from environment variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve reads a credential from the environment.
func (e *EnvironmentStore) Retrieve(service string) (*Credential, error) {
	for _, name := range envKeys[service] {
		if v := os.Getenv(name); v != "" {
			return &Credential{
				Service:      service,
				Key:          v,
				Label:        "env:" + name,
				LastModified: time.Now(),
			}, nil
		}
	}
	return nil, ErrCredentialNotFound
}

// List returns whichever services the environment provides.
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for service := range envKeys {
		if cred, err := e.Retrieve(service); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(service string) error {
	return ErrStoreUnavailable
}

// Exists checks whether the environment provides a service's key.
func (e *EnvironmentStore) Exists(service string) bool {
	_, err := e.Retrieve(service)
	return err == nil
}
