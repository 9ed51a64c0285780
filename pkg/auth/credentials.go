// Package auth stores the API keys the client needs: the data API
// token and the LLM key. Secrets go to the system keychain when one is
// available, an encrypted file otherwise, with environment variables
// as a read-only fallback.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Service names the credential slots the client uses.
const (
	ServiceDataAPI = "hikerapi"
	ServiceLLM     = "openrouter"
)

// Credential is one stored API key.
type Credential struct {
	Service      string    `json:"service"`
	Key          string    `json:"key"`
	Label        string    `json:"label,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface credential backends implement.
type Store interface {
	Store(cred *Credential) error
	Retrieve(service string) (*Credential, error)
	List() ([]*Credential, error)
	Delete(service string) error
	Exists(service string) bool
}

// Manager layers credential stores: keychain first, encrypted file
// next, environment last.
type Manager struct {
	stores []Store
}

// NewManager builds a manager with every backend available on this
// system.
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a credential using the first writable backend.
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Service == "" {
		return errors.New("service name is required")
	}
	if cred.Key == "" {
		return errors.New("key is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets a credential from the first backend that has it.
func (m *Manager) Retrieve(service string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(service); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("no credential stored for %s", service)
}

// List returns every stored credential, preferring the most recently
// modified copy when backends disagree.
func (m *Manager) List() ([]*Credential, error) {
	credMap := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := credMap[cred.Service]; !ok || cred.LastModified.After(existing.LastModified) {
				credMap[cred.Service] = cred
			}
		}
	}

	var result []*Credential
	for _, cred := range credMap {
		result = append(result, cred)
	}
	return result, nil
}

// Delete removes a credential from every backend that holds it.
func (m *Manager) Delete(service string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(service); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credential: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("no credential stored for %s", service)
	}
	return nil
}

// DeleteAll removes every stored credential.
func (m *Manager) DeleteAll() error {
	creds, err := m.List()
	if err != nil {
		return err
	}
	for _, cred := range creds {
		_ = m.Delete(cred.Service)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igstat")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igstat")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igstat")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igstat")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy of the credential with the key masked for
// display.
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	return &Credential{
		Service:      cred.Service,
		Key:          maskString(cred.Key),
		Label:        cred.Label,
		LastModified: cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
)
