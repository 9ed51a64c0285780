// Package storage provides file management for downloaded media assets.
//
// The storage package handles:
//   - Creating and managing output directories
//   - Saving assets with atomic write operations
//   - Detecting duplicate downloads
//   - Thread-safe file operations
//
// The Manager type is the primary interface for storage operations. It
// maintains an in-memory cache of saved files for fast duplicate
// detection and writes through temp files to prevent corruption.
//
// Usage:
//
//	manager, err := storage.NewManager("output_directory")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !manager.IsSaved("natgeo_AAA11.mp4") {
//	    _, err = manager.Save(body, "natgeo_AAA11.mp4")
//	    if err != nil {
//	        log.Printf("Failed to save asset: %v", err)
//	    }
//	}
package storage
