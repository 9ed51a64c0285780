package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	cred := &Credential{
		Service:      ServiceDataAPI,
		Key:          "hk_test_key_1234567890",
		LastModified: time.Now(),
	}

	err := manager.Store(cred)
	if err != nil {
		t.Errorf("Failed to store credential: %v", err)
	}

	retrieved, err := manager.Retrieve(ServiceDataAPI)
	if err != nil {
		t.Errorf("Failed to retrieve credential: %v", err)
	}

	if retrieved.Service != cred.Service {
		t.Errorf("Service mismatch: got %s, want %s", retrieved.Service, cred.Service)
	}
	if retrieved.Key != cred.Key {
		t.Errorf("Key mismatch: got %s, want %s", retrieved.Key, cred.Key)
	}

	creds, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list credentials: %v", err)
	}
	if len(creds) == 0 {
		t.Error("Expected at least one credential in list")
	}

	sanitized := Sanitize(cred)
	if sanitized.Key == cred.Key {
		t.Error("Key should be masked")
	}
	if sanitized.Service != cred.Service {
		t.Error("Service should not be masked")
	}

	err = manager.Delete(ServiceDataAPI)
	if err != nil {
		t.Errorf("Failed to delete credential: %v", err)
	}

	_, err = manager.Retrieve(ServiceDataAPI)
	if err == nil {
		t.Error("Expected error retrieving deleted credential")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 credentials after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsIncompleteCredential(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Credential{Service: ServiceLLM}); err == nil {
		t.Error("Expected error storing credential without a key")
	}
	if err := manager.Store(&Credential{Key: "orphan"}); err == nil {
		t.Error("Expected error storing credential without a service")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("IGSTAT_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("IGSTAT_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	cred := &Credential{
		Service: ServiceLLM,
		Key:     "sk-or-secret-material",
	}

	err = store.Store(cred)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve(ServiceLLM)
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Key != cred.Key {
		t.Errorf("Key mismatch after encryption/decryption")
	}

	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// the key must never appear on disk in the clear
	if contains(fileContent, []byte("sk-or-secret-material")) {
		t.Error("File contains plaintext key")
	}
}

func TestEncryptedFileStoreDeleteRemovesEmptyFile(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "creds.enc")

	os.Setenv("IGSTAT_PASSPHRASE", "test_passphrase_delete")
	defer os.Unsetenv("IGSTAT_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Store(&Credential{Service: ServiceDataAPI, Key: "k"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ServiceDataAPI); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected file to be removed once empty")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("HIKERAPI_TOKEN", "env_data_key")
	os.Setenv("OPENROUTER_API_KEY", "env_llm_key")
	defer os.Unsetenv("HIKERAPI_TOKEN")
	defer os.Unsetenv("OPENROUTER_API_KEY")

	store := NewEnvironmentStore()

	cred, err := store.Retrieve(ServiceDataAPI)
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}
	if cred.Key != "env_data_key" {
		t.Errorf("Key mismatch: got %s, want env_data_key", cred.Key)
	}

	cred, err = store.Retrieve(ServiceLLM)
	if err != nil {
		t.Errorf("Failed to retrieve LLM key from environment: %v", err)
	}
	if cred.Key != "env_llm_key" {
		t.Errorf("Key mismatch: got %s, want env_llm_key", cred.Key)
	}

	err = store.Store(&Credential{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentStoreFallbackVariable(t *testing.T) {
	os.Unsetenv("HIKERAPI_TOKEN")
	os.Setenv("HIKERAPI_KEY", "fallback_key")
	defer os.Unsetenv("HIKERAPI_KEY")

	store := NewEnvironmentStore()
	cred, err := store.Retrieve(ServiceDataAPI)
	if err != nil {
		t.Fatalf("Failed to retrieve fallback key: %v", err)
	}
	if cred.Key != "fallback_key" {
		t.Errorf("Key mismatch: got %s, want fallback_key", cred.Key)
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("IGSTAT_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("IGSTAT_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	cred := &Credential{
		Service:      ServiceDataAPI,
		Key:          "real_data_key",
		LastModified: time.Now(),
	}

	err = manager.Store(cred)
	if err != nil {
		t.Fatalf("Failed to store credential: %v", err)
	}

	creds, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list credentials: %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("Expected 1 credential in list, got %d", len(creds))
	}

	retrieved, err := manager.Retrieve(ServiceDataAPI)
	if err != nil {
		t.Fatalf("Failed to retrieve credential: %v", err)
	}

	if retrieved.Key != cred.Key {
		t.Errorf("Key mismatch: got %s, want %s", retrieved.Key, cred.Key)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	creds, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(creds) != 0 {
		t.Errorf("Expected 0 credentials, got %d", len(creds))
	}

	cred := &Credential{
		Service: ServiceLLM,
		Key:     "mock_key",
	}

	err = store.Store(cred)
	if err != nil {
		t.Errorf("Failed to store credential: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 credential, got %d", store.Count())
	}

	if !store.Exists(ServiceLLM) {
		t.Error("Credential should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
