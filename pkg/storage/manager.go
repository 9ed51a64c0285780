package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager handles asset file storage and duplicate detection.
type Manager struct {
	outputDir string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a storage manager rooted at outputDir.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles seeds the duplicate map from what is already on
// disk, skipping leftover temp files.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		m.saved[entry.Name()] = true
	}

	return nil
}

// IsSaved checks if a file with the given name is already stored.
func (m *Manager) IsSaved(filename string) bool {
	m.mu.RLock()
	if m.saved[filename] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	if _, err := os.Stat(filepath.Join(m.outputDir, filename)); err == nil {
		m.mu.Lock()
		m.saved[filename] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save writes an asset from the given reader. The write goes through a
// temp file and a rename so readers never see a partial file.
func (m *Manager) Save(r io.Reader, filename string) (int64, error) {
	path := filepath.Join(m.outputDir, filename)

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	size, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to save asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[filename] = true
	m.mu.Unlock()

	return size, nil
}

// OutputDir returns the output directory path.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of stored assets.
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
