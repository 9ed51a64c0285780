package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igstat/pkg/errors"
	"igstat/pkg/logger"
	"igstat/pkg/models"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := NewExporter(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	e.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	return e
}

func reelCollection() *models.Collection {
	published := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reel := models.ReelStats{
		ID: "9001", Shortcode: "DAbc123", Owner: "natgeo",
		Views: 150_000, Likes: 12_000, Comments: 340, Saves: 900,
		PublishedAt: published, FetchedAt: published,
	}
	reel.Derive()
	return &models.Collection{
		Name:      "natgeo reels",
		Kind:      models.CollectionReels,
		FetchedAt: published,
		Rows:      []models.Row{reel.Row()},
		Metadata:  models.Row{"target_username": "natgeo"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{" CSV ", FormatCSV},
		{"json", FormatJSON},
		{"Json", FormatJSON},
	} {
		got, err := ParseFormat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeUnresolved))
}

func TestExportEmptyCollection(t *testing.T) {
	e := newTestExporter(t)

	_, err := e.Export(&models.Collection{Name: "empty", Kind: models.CollectionReels}, FormatCSV, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeExportTargetMissing))
}

func TestExportCSVFilenameAndHeader(t *testing.T) {
	e := newTestExporter(t)

	result, err := e.Export(reelCollection(), FormatCSV, "")
	require.NoError(t, err)

	assert.Equal(t, "natgeo-reels_20250615_103000.csv", filepath.Base(result.Path))
	assert.Equal(t, 1, result.RowCount)

	f, err := os.Open(result.Path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "shortcode", header[0])
	assert.Equal(t, "url", header[1])
	assert.Equal(t, "views", header[4])

	row := records[1]
	assert.Equal(t, "DAbc123", row[0])
	assert.Equal(t, "150000", row[4])
}

func TestExportCSVUnionOfKeys(t *testing.T) {
	e := newTestExporter(t)

	col := reelCollection()
	extra := models.Row{}
	for k, v := range col.Rows[0] {
		extra[k] = v
	}
	extra["audience_overlap"] = 0.42
	col.Rows = append(col.Rows, extra)

	result, err := e.Export(col, FormatCSV, "")
	require.NoError(t, err)

	f, err := os.Open(result.Path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	// Off-priority keys trail the pinned columns.
	assert.Equal(t, "audience_overlap", header[len(header)-1])
	// Row one lacks the extra key and renders it empty.
	assert.Equal(t, "", records[1][len(header)-1])
	assert.Equal(t, "0.42", records[2][len(header)-1])
}

func TestExportCSVQuoting(t *testing.T) {
	e := newTestExporter(t)

	col := &models.Collection{
		Name: "DAbc123 comments",
		Kind: models.CollectionComments,
		Rows: []models.Row{
			(&models.Comment{ID: "c1", Username: "fan", Text: `love it, "really"`}).Row(),
		},
	}

	result, err := e.Export(col, FormatCSV, "")
	require.NoError(t, err)

	f, err := os.Open(result.Path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `love it, "really"`, records[1][2])
}

func TestExportJSONEnvelope(t *testing.T) {
	e := newTestExporter(t)
	col := reelCollection()

	result, err := e.Export(col, FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, "natgeo-reels_20250615_103000.json", filepath.Base(result.Path))

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)

	var envelope struct {
		GeneratedAt time.Time `json:"generated_at"`
		Collection  struct {
			Name  string `json:"name"`
			Kind  string `json:"kind"`
			Count int    `json:"count"`
		} `json:"collection"`
		Metadata models.Row   `json:"metadata"`
		Rows     []models.Row `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))

	assert.Equal(t, "natgeo reels", envelope.Collection.Name)
	assert.Equal(t, "reels", envelope.Collection.Kind)
	assert.Equal(t, 1, envelope.Collection.Count)
	assert.Equal(t, "natgeo", envelope.Metadata["target_username"])
	require.Len(t, envelope.Rows, 1)

	// JSON numbers come back as float64; compare via re-marshaling.
	want, err := json.Marshal(col.Rows[0])
	require.NoError(t, err)
	got, err := json.Marshal(envelope.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestExportWritesSidecar(t *testing.T) {
	e := newTestExporter(t)

	result, err := e.Export(reelCollection(), FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, result.Path+".meta.json", result.MetaPath)

	data, err := os.ReadFile(result.MetaPath)
	require.NoError(t, err)

	var meta struct {
		File       string `json:"file"`
		Format     string `json:"format"`
		Collection struct {
			Kind  string `json:"kind"`
			Count int    `json:"count"`
		} `json:"collection"`
	}
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, filepath.Base(result.Path), meta.File)
	assert.Equal(t, "json", meta.Format)
	assert.Equal(t, "reels", meta.Collection.Kind)
	assert.Equal(t, 1, meta.Collection.Count)
}

func TestExportLeavesNoTempFiles(t *testing.T) {
	e := newTestExporter(t)

	_, err := e.Export(reelCollection(), FormatCSV, "")
	require.NoError(t, err)

	entries, err := os.ReadDir(e.Dir())
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), entry.Name())
	}
}

func TestSlugify(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"natgeo reels", "natgeo-reels"},
		{"search natgeo wildlife!", "search-natgeo-wildlife"},
		{"likers ranked AAA11+BBB22", "likers-ranked-aaa11-bbb22"},
		{"///", "export"},
		{"trailing ", "trailing"},
	} {
		assert.Equal(t, tc.want, slugify(tc.in), tc.in)
	}
}

func TestExportFilenameHint(t *testing.T) {
	e := newTestExporter(t)

	result, err := e.Export(reelCollection(), FormatCSV, "My Reels Dump")
	require.NoError(t, err)
	assert.Equal(t, "my-reels-dump_20250615_103000.csv", filepath.Base(result.Path))

	// An empty hint falls back to the collection name.
	result, err = e.Export(reelCollection(), FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, "natgeo-reels_20250615_103000.json", filepath.Base(result.Path))
}
