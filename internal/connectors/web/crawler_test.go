package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

func testConfig(seeds ...string) domain.CrawlConfig {
	cfg := domain.DefaultCrawlConfig()
	cfg.SeedURLs = seeds
	cfg.RequestDelay = 0
	return cfg
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>Docs</title></head><body>
			<p>Documentation page for %s.</p>
			<a href="/docs/a">A</a>
			<a href="/docs/b">B</a>
			<a href="/admin/secret">Admin</a>
			<a href="https://other.example.com/x">External</a>
		</body></html>`, r.URL.Path)
	})
	mux.HandleFunc("/big.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "20971520")
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><script>var x = 1;</script></body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func TestCrawl_FollowsLinksWithinPolicy(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/docs/")
	cfg.AllowedPathPrefixes = []string{"/docs"}
	cfg.MaxDepth = 1

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	// Seed plus the two in-policy links.
	urls := make(map[string]bool)
	for _, r := range results {
		if r.Success {
			urls[r.URL] = true
		}
	}
	assert.True(t, urls[srv.URL+"/docs/"])
	assert.True(t, urls[srv.URL+"/docs/a"])
	assert.True(t, urls[srv.URL+"/docs/b"])

	// Out-of-policy and off-domain links were never fetched.
	for _, r := range results {
		assert.NotContains(t, r.URL, "/admin/")
		assert.NotContains(t, r.URL, "other.example.com")
	}

	stats := c.Stats()
	assert.Equal(t, 3, stats.URLsSuccess)
	assert.Equal(t, 0, stats.URLsFailed)
}

func TestCrawl_SeedOutsidePathPolicy(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/admin/secret")
	cfg.AllowedPathPrefixes = []string{"/docs"}

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "path_not_allowed: /admin/secret", results[0].SkipReason)
	assert.Equal(t, 1, c.Stats().URLsSkipped)
	assert.Equal(t, 0, c.Stats().URLsAttempted)
}

func TestCrawl_MaxDepthZeroFetchesOnlySeeds(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/docs/")
	cfg.MaxDepth = 0

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 1, c.Stats().URLsSuccess)
}

func TestCrawl_DuplicateSeedSkippedAsVisited(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	seed := srv.URL + "/docs/"
	cfg := testConfig(seed, seed)
	cfg.MaxDepth = 0

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Skipped)
	assert.Equal(t, "already_visited", results[1].SkipReason)

	// Visited skips do not count toward the skipped stat.
	assert.Equal(t, 0, c.Stats().URLsSkipped)
}

func TestCrawl_OversizedPDFSkipped(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/big.pdf")
	cfg.MaxPDFMB = 10

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.True(t, strings.HasPrefix(results[0].SkipReason, "pdf_too_large:"),
		"got reason %q", results[0].SkipReason)
	assert.Equal(t, domain.ContentTypePDF, results[0].ContentType)
	assert.Equal(t, 1, c.Stats().URLsSkipped)
}

func TestCrawl_NoTextExtracted(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/empty")

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "no_text_extracted", results[0].Error)
	assert.Equal(t, 1, c.Stats().URLsFailed)
}

func TestCrawl_HTTPErrorStatus(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/missing")

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "http status 404", results[0].Error)
}

func TestCrawl_MaxURLsCapsFetches(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/docs/")
	cfg.AllowedPathPrefixes = []string{"/docs"}
	cfg.MaxDepth = 2
	cfg.MaxURLs = 2

	c := NewCrawler()
	c.Crawl(context.Background(), cfg)

	assert.Equal(t, 2, c.Stats().URLsSuccess)
}

func TestCrawl_ResultFields(t *testing.T) {
	srv := newTestSite(t)
	defer srv.Close()

	cfg := testConfig(srv.URL + "/docs/")
	cfg.MaxDepth = 0

	c := NewCrawler()
	results := c.Crawl(context.Background(), cfg)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Docs", r.Title)
	assert.Equal(t, domain.ContentTypeHTML, r.ContentType)
	assert.NotEmpty(t, r.ContentHash)
	assert.NotEmpty(t, r.Encoding)
	assert.False(t, r.CrawledAt.IsZero())
	assert.Contains(t, r.Text, "Documentation page")
}

func TestURLAllowed_DomainRules(t *testing.T) {
	cfg := domain.DefaultCrawlConfig()

	ok, _ := urlAllowed("https://example.com/a", cfg, "example.com")
	assert.True(t, ok)

	ok, reason := urlAllowed("https://evil.com/a", cfg, "example.com")
	assert.False(t, ok)
	assert.Equal(t, "different_domain: evil.com", reason)

	cfg.AllowedDomains = []string{"example.com", "docs.example.com"}
	ok, _ = urlAllowed("https://docs.example.com/a", cfg, "example.com")
	assert.True(t, ok)

	ok, reason = urlAllowed("https://evil.com/a", cfg, "example.com")
	assert.False(t, ok)
	assert.Equal(t, "domain_not_allowed: evil.com", reason)
}
