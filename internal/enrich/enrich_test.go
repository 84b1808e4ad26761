package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestExtractor(maxLen int) *Extractor {
	return New(Config{
		Timeout:       2 * time.Second,
		MaxContentLen: maxLen,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_PrimarySelector(t *testing.T) {
	srv := serveHTML(t, `<html><body>
		<div id="js_content">  Main   article
		body  </div>
		<div class="content">sidebar junk</div>
	</body></html>`)

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "Main article body", got)
}

func TestExtract_SelectorPrecedence(t *testing.T) {
	// rich_media_content outranks the generic content class.
	srv := serveHTML(t, `<html><body>
		<div class="content">generic</div>
		<div class="rich_media_content">rich body</div>
	</body></html>`)

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "rich body", got)
}

func TestExtract_SkipsEmptyMatch(t *testing.T) {
	srv := serveHTML(t, `<html><body>
		<div id="js_content">   </div>
		<div class="article-content">fallback text</div>
	</body></html>`)

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "fallback text", got)
}

func TestExtract_StripsScriptAndStyle(t *testing.T) {
	srv := serveHTML(t, `<html><body>
		<div id="js_content">
			visible text
			<script>var hidden = 1;</script>
			<style>.x { color: red; }</style>
		</div>
	</body></html>`)

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "visible text", got)
}

func TestExtract_BodyFallback(t *testing.T) {
	srv := serveHTML(t, `<html><body><p>plain page text</p></body></html>`)

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "plain page text", got)
}

func TestExtract_Truncates(t *testing.T) {
	srv := serveHTML(t, `<html><body><div id="js_content">`+strings.Repeat("a", 100)+`</div></body></html>`)

	got := newTestExtractor(10).Extract(context.Background(), srv.URL)
	assert.Equal(t, strings.Repeat("a", 10), got)
}

func TestExtract_TruncatesOnRuneBoundary(t *testing.T) {
	srv := serveHTML(t, `<html><body><div id="js_content">一二三四五六七八</div></body></html>`)

	got := newTestExtractor(3).Extract(context.Background(), srv.URL)
	assert.Equal(t, "一二三", got)
}

func TestExtract_HTTPErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := newTestExtractor(5000).Extract(context.Background(), srv.URL)
	assert.Equal(t, "", got)
}

func TestExtract_UnreachableHostDegrades(t *testing.T) {
	got := newTestExtractor(5000).Extract(context.Background(), "http://127.0.0.1:1")
	assert.Equal(t, "", got)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "a b c", collapse("  a \n\t b \n c  "))
	assert.Equal(t, "", collapse("  \n\t  "))
}
