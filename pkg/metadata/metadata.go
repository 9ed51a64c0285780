// Package metadata records what a download run fetched: the source,
// the owner and every asset with its size. The manifest sits next to
// the downloaded files so a directory is self-describing.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igstat/pkg/models"
)

// AssetRecord describes one downloaded file.
type AssetRecord struct {
	Filename string                   `json:"filename"`
	URL      string                   `json:"url"`
	Kind     models.DownloadAssetKind `json:"kind"`
	Size     int64                    `json:"size,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// Manifest describes one completed download run.
type Manifest struct {
	Source       string        `json:"source"`
	Owner        string        `json:"owner"`
	Shortcode    string        `json:"shortcode,omitempty"`
	DownloadedAt time.Time     `json:"downloaded_at"`
	Assets       []AssetRecord `json:"assets"`
}

// FromPlan builds a manifest skeleton for a download plan.
func FromPlan(plan *models.DownloadPlan) *Manifest {
	return &Manifest{
		Source:       plan.Source,
		Owner:        plan.Owner,
		Shortcode:    plan.Shortcode,
		DownloadedAt: time.Now().UTC(),
	}
}

// Record appends one asset outcome to the manifest.
func (m *Manifest) Record(asset models.DownloadAsset, size int64, err error) {
	rec := AssetRecord{
		Filename: asset.Filename,
		URL:      asset.URL,
		Kind:     asset.Kind,
		Size:     size,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	m.Assets = append(m.Assets, rec)
}

// Failed counts assets that did not complete.
func (m *Manifest) Failed() int {
	n := 0
	for _, a := range m.Assets {
		if a.Error != "" {
			n++
		}
	}
	return n
}

// Files lists the filenames of completed assets.
func (m *Manifest) Files() []string {
	var files []string
	for _, a := range m.Assets {
		if a.Error == "" {
			files = append(files, a.Filename)
		}
	}
	return files
}

// Save writes the manifest next to the downloaded files and returns
// its path.
func (m *Manifest) Save(dir string) (string, error) {
	name := m.Source
	if m.Shortcode != "" {
		name += "_" + m.Shortcode
	} else if m.Owner != "" {
		name += "_" + m.Owner
	}
	path := filepath.Join(dir, name+".meta.json")

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	return path, nil
}

// Load reads a manifest back from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}
