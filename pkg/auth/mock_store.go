package auth

import (
	"fmt"
	"sync"
)

// MockStore implements Store for testing.
type MockStore struct {
	creds map[string]*Credential
	mu    sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a mock credential store.
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]*Credential)}
}

func (m *MockStore) Store(cred *Credential) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cred == nil || cred.Service == "" {
		return ErrInvalidCredential
	}

	credCopy := *cred
	m.creds[cred.Service] = &credCopy
	return nil
}

func (m *MockStore) Retrieve(service string) (*Credential, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if service == "" {
		return nil, ErrInvalidCredential
	}

	cred, exists := m.creds[service]
	if !exists {
		return nil, ErrCredentialNotFound
	}

	credCopy := *cred
	return &credCopy, nil
}

func (m *MockStore) List() ([]*Credential, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var creds []*Credential
	for _, cred := range m.creds {
		credCopy := *cred
		creds = append(creds, &credCopy)
	}
	return creds, nil
}

func (m *MockStore) Delete(service string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if service == "" {
		return ErrInvalidCredential
	}

	if _, exists := m.creds[service]; !exists {
		return ErrCredentialNotFound
	}
	delete(m.creds, service)
	return nil
}

func (m *MockStore) Exists(service string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.creds[service]
	return exists
}

// Clear removes everything from the mock store.
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = make(map[string]*Credential)
}

// Count returns the number of stored credentials.
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}

// NewMockManager creates a Manager backed by a single mock store.
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	return &Manager{stores: []Store{mockStore}}, mockStore
}

// NewMockManagerWithStores creates a Manager with explicit stores.
func NewMockManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// GetCredential returns a copy for inspection in tests.
func (m *MockStore) GetCredential(service string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, exists := m.creds[service]
	if !exists {
		return nil, fmt.Errorf("credential not found: %s", service)
	}
	credCopy := *cred
	return &credCopy, nil
}
