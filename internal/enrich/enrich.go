// Package enrich fetches full article bodies for listing entries. Extraction
// is best-effort: every failure degrades to an empty string so an article or
// account never fails because its body could not be read.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors is ordered most specific first; the first non-empty
// extraction wins. The whole-body fallback runs when none of these match.
var contentSelectors = []string{
	"div#js_content",
	"div.rich_media_content",
	"div.article-content",
	"div.content",
	"div.post-content",
}

type Config struct {
	Timeout       time.Duration
	MaxContentLen int
}

type Extractor struct {
	httpClient    *http.Client
	maxContentLen int
	logger        *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxContentLen: cfg.MaxContentLen,
		logger:        logger.With("component", "enricher"),
	}
}

// Extract fetches the article page and returns its main body text, or ""
// when anything goes wrong.
func (e *Extractor) Extract(ctx context.Context, articleURL string) string {
	doc, err := e.fetch(ctx, articleURL)
	if err != nil {
		e.logger.Warn("content fetch failed", "url", articleURL, "error", err)
		return ""
	}

	text := extractText(doc)
	if text == "" {
		e.logger.Warn("no content extracted", "url", articleURL)
		return ""
	}

	return truncate(text, e.maxContentLen)
}

func (e *Extractor) fetch(ctx context.Context, articleURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractText(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("script, style").Remove()
		if text := collapse(sel.Text()); text != "" {
			return text
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style").Remove()
	return collapse(body.Text())
}

// collapse squeezes runs of whitespace into single spaces and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts at a rune boundary so multibyte text is never split mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
