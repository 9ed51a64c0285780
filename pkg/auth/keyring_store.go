package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "igstat"
	keyringPrefix  = "apikey_"
)

// KeyringStore keeps credentials in the system keychain.
type KeyringStore struct{}

// NewKeyringStore probes keychain availability before returning a
// store, so the manager can fall through on headless systems.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Service == "" {
		return ErrInvalidCredential
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+cred.Service, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Retrieve(service string) (*Credential, error) {
	if service == "" {
		return nil, ErrInvalidCredential
	}

	data, err := keyring.Get(keyringService, keyringPrefix+service)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List enumerates the known service slots; the keyring API itself
// cannot list keys.
func (k *KeyringStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, service := range []string{ServiceDataAPI, ServiceLLM} {
		if cred, err := k.Retrieve(service); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

func (k *KeyringStore) Delete(service string) error {
	if service == "" {
		return ErrInvalidCredential
	}

	if err := keyring.Delete(keyringService, keyringPrefix+service); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Exists(service string) bool {
	if service == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+service)
	return err == nil
}
