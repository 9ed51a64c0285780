package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}

	if manager.IsSaved("test123.mp4") {
		t.Error("Expected IsSaved to return false for non-existent file")
	}

	testData := []byte("test asset data")
	size, err := manager.Save(bytes.NewReader(testData), "test123.mp4")
	if err != nil {
		t.Fatalf("Failed to save asset: %v", err)
	}
	if size != int64(len(testData)) {
		t.Errorf("Expected size %d, got %d", len(testData), size)
	}

	expectedPath := filepath.Join(tempDir, "test123.mp4")
	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.IsSaved("test123.mp4") {
		t.Error("Expected IsSaved to return true for existing file")
	}

	if manager.SavedCount() != 1 {
		t.Errorf("Expected saved count to be 1, got %d", manager.SavedCount())
	}

	// seed the scan with a file written outside the manager
	manualFile := filepath.Join(tempDir, "manual456.jpg")
	if err := os.WriteFile(manualFile, []byte("manual"), 0644); err != nil {
		t.Fatalf("Failed to create manual file: %v", err)
	}

	manager2, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create second manager: %v", err)
	}

	if manager2.SavedCount() != 2 {
		t.Errorf("Expected saved count to be 2 after scanning, got %d", manager2.SavedCount())
	}

	if !manager2.IsSaved("manual456.jpg") {
		t.Error("Expected manually created file to be detected")
	}
}

func TestManagerSkipsTempFilesOnScan(t *testing.T) {
	tempDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tempDir, "half.mp4.tmp"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	if manager.SavedCount() != 0 {
		t.Errorf("Expected temp files to be ignored, got count %d", manager.SavedCount())
	}
}
