package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp_scraper/internal/domain"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func sampleArticles() []domain.Article {
	return []domain.Article{
		{
			AccountName:      "Tech Daily",
			Title:            "First, with comma",
			URL:              "https://example.com/1",
			Digest:           "digest one",
			PublishTime:      "2025-06-03 10:00:00",
			PublishTimestamp: 1748916000,
			Content:          "full body one",
		},
		{
			AccountName:      "科技日报",
			Title:            "第二篇",
			URL:              "https://example.com/2",
			Digest:           "",
			PublishTime:      "2025-06-02 08:30:00",
			PublishTimestamp: 1748824200,
		},
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, bom), "export must start with a UTF-8 BOM")

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExport_WritesFile(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir, false)

	path, err := exporter.Export(sampleArticles(), "2025-06-01", "2025-06-07")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch_2025-06-01_2025-06-07.csv"), path)

	rows := readRows(t, path)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"account_name", "title", "url", "digest", "publish_time", "publish_timestamp"}, rows[0])
	assert.Equal(t, []string{"Tech Daily", "First, with comma", "https://example.com/1", "digest one", "2025-06-03 10:00:00", "1748916000"}, rows[1])
	assert.Equal(t, []string{"科技日报", "第二篇", "https://example.com/2", "", "2025-06-02 08:30:00", "1748824200"}, rows[2])
}

func TestExport_IncludesContentColumn(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir(), true)

	path, err := exporter.Export(sampleArticles(), "2025-06-01", "2025-06-07")
	require.NoError(t, err)

	rows := readRows(t, path)
	require.Len(t, rows, 3)

	assert.Equal(t, "content", rows[0][len(rows[0])-1])
	assert.Equal(t, "full body one", rows[1][len(rows[1])-1])
	assert.Equal(t, "", rows[2][len(rows[2])-1])
}

func TestExport_EmptyBatchStillWritesHeader(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir(), false)

	path, err := exporter.Export(nil, "2025-06-01", "2025-06-07")
	require.NoError(t, err)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
}

func TestExport_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	exporter := NewCSVExporter(dir, false)

	path, err := exporter.Export(sampleArticles(), "2025-06-01", "2025-06-07")
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExport_SameWindowOverwrites(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir(), false)

	first, err := exporter.Export(sampleArticles(), "2025-06-01", "2025-06-07")
	require.NoError(t, err)

	second, err := exporter.Export(sampleArticles()[:1], "2025-06-01", "2025-06-07")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rows := readRows(t, second)
	assert.Len(t, rows, 2)
}
