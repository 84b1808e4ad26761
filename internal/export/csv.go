// Package export writes the flat per-batch result file. The orchestrator
// calls it exactly once, after all workers have joined.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mp_scraper/internal/domain"
)

type CSVExporter struct {
	dir            string
	includeContent bool
}

func NewCSVExporter(dir string, includeContent bool) *CSVExporter {
	return &CSVExporter{dir: dir, includeContent: includeContent}
}

// Export writes the aggregate article list for one batch and returns the
// file path. The name is derived from the date window so re-runs of the same
// window overwrite the previous export.
func (e *CSVExporter) Export(articles []domain.Article, startDate, endDate string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("batch_%s_%s.csv", startDate, endDate))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	// UTF-8 BOM so spreadsheet tools detect the encoding for CJK text.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("write bom: %w", err)
	}

	w := csv.NewWriter(f)

	header := []string{"account_name", "title", "url", "digest", "publish_time", "publish_timestamp"}
	if e.includeContent {
		header = append(header, "content")
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, a := range articles {
		row := []string{
			a.AccountName,
			a.Title,
			a.URL,
			a.Digest,
			a.PublishTime,
			strconv.FormatInt(a.PublishTimestamp, 10),
		}
		if e.includeContent {
			row = append(row, a.Content)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}

	return path, nil
}
