// Package export writes the session's last collection to disk as CSV
// or JSON, with a metadata sidecar beside every file. Writes go
// through a temp file and an atomic rename so a crash never leaves a
// half-written export behind.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/logger"
	"igstat/pkg/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", errors.Newf(errors.ErrorTypeUnresolved, "unknown export format %q (want csv or json)", s)
	}
}

// Result describes one completed export.
type Result struct {
	Path     string `json:"path"`
	MetaPath string `json:"meta_path"`
	Format   Format `json:"format"`
	RowCount int    `json:"row_count"`
}

// Exporter writes collections into one output directory.
type Exporter struct {
	dir string
	log logger.Logger

	// now is swappable so tests get deterministic filenames.
	now func() time.Time
}

// NewExporter creates the output directory if needed.
func NewExporter(dir string, log logger.Logger) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{dir: dir, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Dir returns the output directory path.
func (e *Exporter) Dir() string { return e.dir }

// Export writes col in the given format and drops a .meta.json sidecar
// next to it. An empty hint falls back to the collection name for the
// filename slug.
func (e *Exporter) Export(col *models.Collection, format Format, hint string) (*Result, error) {
	if col.Len() == 0 {
		return nil, errors.New(errors.ErrorTypeExportTargetMissing, "nothing to export yet; run a data command first")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = e.encodeCSV(col)
	case FormatJSON:
		data, err = e.encodeJSON(col)
	default:
		return nil, errors.Newf(errors.ErrorTypeUnresolved, "unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	slug := hint
	if slug == "" {
		slug = col.Name
	}
	filename := fmt.Sprintf("%s_%s.%s", slugify(slug), e.now().Format("20060102_150405"), format)
	path := filepath.Join(e.dir, filename)
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}

	metaPath := path + ".meta.json"
	if err := e.writeSidecar(metaPath, path, col, format); err != nil {
		os.Remove(path)
		return nil, err
	}

	e.log.InfoWithFields("collection exported", map[string]interface{}{
		"path":   path,
		"format": string(format),
		"rows":   col.Len(),
	})
	return &Result{Path: path, MetaPath: metaPath, Format: format, RowCount: col.Len()}, nil
}

// jsonEnvelope is the top-level JSON export shape.
type jsonEnvelope struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Collection  envelopeInfo `json:"collection"`
	Metadata    models.Row   `json:"metadata,omitempty"`
	Rows        []models.Row `json:"rows"`
}

type envelopeInfo struct {
	Name  string                `json:"name"`
	Kind  models.CollectionKind `json:"kind"`
	Count int                   `json:"count"`
}

func (e *Exporter) encodeJSON(col *models.Collection) ([]byte, error) {
	envelope := jsonEnvelope{
		GeneratedAt: e.now(),
		Collection:  envelopeInfo{Name: col.Name, Kind: col.Kind, Count: col.Len()},
		Metadata:    col.Metadata,
		Rows:        col.Rows,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

func (e *Exporter) encodeCSV(col *models.Collection) ([]byte, error) {
	header := headerFor(col)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range col.Rows {
		for i, key := range header {
			record[i] = renderCSVValue(row[key])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// kindPriority pins the leading columns per collection kind; keys not
// listed here trail in alphabetical order.
var kindPriority = map[models.CollectionKind][]string{
	models.CollectionReels: {
		"shortcode", "url", "owner", "published_at", "views", "likes",
		"comments", "saves", "engagement_rate", "viral_index", "viral_status",
	},
	models.CollectionFollowers: {
		"username", "full_name", "follower_count", "verified", "private", "enriched",
	},
	models.CollectionLikers: {
		"username", "full_name", "follower_count", "verified", "liked_count",
	},
	models.CollectionLikersRanked: {
		"rank", "username", "full_name", "follower_count", "verified",
		"liked_count", "liked_shortcodes",
	},
	models.CollectionComments: {
		"id", "username", "text", "like_count", "created_at",
	},
	models.CollectionSearch: {
		"kind", "username", "full_name", "verified", "follower_count", "shortcode",
	},
	models.CollectionStories: {
		"id", "media_type", "taken_at", "url",
	},
	models.CollectionHighlights: {
		"id", "title", "media_count", "cover_url",
	},
}

// headerFor builds the union of row keys, priority columns first.
func headerFor(col *models.Collection) []string {
	seen := make(map[string]bool)
	for _, row := range col.Rows {
		for key := range row {
			seen[key] = true
		}
	}

	var header []string
	for _, key := range kindPriority[col.Kind] {
		if seen[key] {
			header = append(header, key)
			delete(seen, key)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(header, rest...)
}

func renderCSVValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(val, ";")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// sidecar is the .meta.json shape recording export provenance.
type sidecar struct {
	ExportedAt time.Time    `json:"exported_at"`
	File       string       `json:"file"`
	Format     Format       `json:"format"`
	Collection envelopeInfo `json:"collection"`
	FetchedAt  time.Time    `json:"fetched_at"`
	Metadata   models.Row   `json:"metadata,omitempty"`
}

func (e *Exporter) writeSidecar(metaPath, dataPath string, col *models.Collection, format Format) error {
	meta := sidecar{
		ExportedAt: e.now(),
		File:       filepath.Base(dataPath),
		Format:     format,
		Collection: envelopeInfo{Name: col.Name, Kind: col.Kind, Count: col.Len()},
		FetchedAt:  col.FetchedAt,
		Metadata:   col.Metadata,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	return writeAtomic(metaPath, append(data, '\n'))
}

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// slugify flattens a collection name into a filesystem-safe token.
func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(name, "-")
	slug = strings.Trim(slug, "-_.")
	if slug == "" {
		return "export"
	}
	return strings.ToLower(slug)
}

// writeAtomic writes through a temp file and renames into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
