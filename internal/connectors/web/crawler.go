// Package web implements a bounded breadth-first web crawler with
// domain/path allow-listing and dual HTML/PDF extraction.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/logger"
	"github.com/aoba-labs/lawdex/internal/normalisers/html"
	"github.com/aoba-labs/lawdex/internal/normalisers/pdf"
	"github.com/aoba-labs/lawdex/internal/textenc"
)

// RequestTimeout is the per-request HTTP timeout.
const RequestTimeout = 30 * time.Second

// MaxLinksPerPage caps how many discovered links one page may add to the
// frontier.
const MaxLinksPerPage = 50

// acceptHeader lists the content types the crawler handles.
const acceptHeader = "text/html,application/xhtml+xml,application/pdf"

// Crawler fetches pages breadth-first from seed URLs. The visited set and
// stats are scoped to a single Crawl call; a Crawler may be reused for
// multiple independent jobs.
type Crawler struct {
	client *http.Client
	html   driven.Normaliser
	pdf    driven.Normaliser

	visited map[string]bool
	stats   domain.CrawlStats
}

// NewCrawler creates a web crawler with the default normalisers.
func NewCrawler() *Crawler {
	return &Crawler{
		client:  &http.Client{Timeout: RequestTimeout},
		html:    html.New(textenc.NewDetector()),
		pdf:     pdf.New(),
		visited: make(map[string]bool),
	}
}

// NewCrawlerWith creates a web crawler with explicit collaborators, used in
// tests.
func NewCrawlerWith(client *http.Client, htmlNorm, pdfNorm driven.Normaliser) *Crawler {
	if client == nil {
		client = &http.Client{Timeout: RequestTimeout}
	}
	return &Crawler{
		client:  client,
		html:    htmlNorm,
		pdf:     pdfNorm,
		visited: make(map[string]bool),
	}
}

// Stats returns the counters from the most recent crawl.
func (c *Crawler) Stats() domain.CrawlStats {
	return c.stats
}

// frontierEntry pairs a URL with its BFS depth.
type frontierEntry struct {
	url   string
	depth int
}

// Crawl performs a breadth-first crawl from the configured seeds. Every
// dequeued URL produces exactly one CrawlResult, including skipped and
// failed ones. Per-URL failures never abort the crawl; the aggregate result
// list is the source of truth for partial success.
func (c *Crawler) Crawl(ctx context.Context, cfg domain.CrawlConfig) []domain.CrawlResult {
	// Visited set and stats are reset, not reused, per invocation.
	c.visited = make(map[string]bool)
	c.stats = domain.CrawlStats{}

	var seedDomain string
	if len(cfg.SeedURLs) > 0 {
		seedDomain = urlDomain(cfg.SeedURLs[0])
	}

	limiter := newPolitenessLimiter(cfg.RequestDelay)

	var results []domain.CrawlResult
	frontier := make([]frontierEntry, 0, len(cfg.SeedURLs))
	for _, seed := range cfg.SeedURLs {
		frontier = append(frontier, frontierEntry{url: seed, depth: 0})
	}

	for len(frontier) > 0 && c.stats.URLsSuccess < cfg.MaxURLs {
		entry := frontier[0]
		frontier = frontier[1:]

		result := c.crawlURL(ctx, entry.url, cfg, seedDomain, entry.depth, limiter)
		results = append(results, result)

		if len(result.Links) > 0 && entry.depth < cfg.MaxDepth {
			admitted := 0
			for _, link := range result.Links {
				if admitted >= MaxLinksPerPage {
					break
				}
				if c.visited[link] {
					continue
				}
				frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
				admitted++
			}
		}
	}

	logger.Info("crawl complete: attempted=%d success=%d failed=%d skipped=%d",
		c.stats.URLsAttempted, c.stats.URLsSuccess, c.stats.URLsFailed, c.stats.URLsSkipped)

	return results
}

// crawlURL fetches and processes a single URL.
func (c *Crawler) crawlURL(
	ctx context.Context,
	rawURL string,
	cfg domain.CrawlConfig,
	seedDomain string,
	depth int,
	limiter *rate.Limiter,
) domain.CrawlResult {
	result := domain.CrawlResult{
		URL:         rawURL,
		Domain:      urlDomain(rawURL),
		ContentType: domain.ContentTypeUnknown,
		CrawledAt:   time.Now().UTC(),
		Depth:       depth,
	}

	if c.visited[rawURL] {
		result.Skipped = true
		result.SkipReason = "already_visited"
		return result
	}
	c.visited[rawURL] = true

	if c.stats.URLsSuccess >= cfg.MaxURLs {
		result.Skipped = true
		result.SkipReason = "max_urls_reached"
		return result
	}

	if depth > cfg.MaxDepth {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("depth_exceeded: %d > %d", depth, cfg.MaxDepth)
		return result
	}

	if allowed, reason := urlAllowed(rawURL, cfg, seedDomain); !allowed {
		result.Skipped = true
		result.SkipReason = reason
		c.stats.URLsSkipped++
		return result
	}

	c.stats.URLsAttempted++

	if err := limiter.Wait(ctx); err != nil {
		result.Error = err.Error()
		c.stats.URLsFailed++
		return result
	}

	logger.Info("fetching: %s (depth=%d)", rawURL, depth)

	resp, err := c.fetch(ctx, rawURL, cfg)
	if err != nil {
		result.Error = err.Error()
		c.stats.URLsFailed++
		logger.Warn("request failed: %s (%v)", rawURL, err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("http status %d", resp.StatusCode)
		c.stats.URLsFailed++
		return result
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") || strings.HasSuffix(rawURL, ".pdf") {
		c.processPDF(ctx, resp, cfg, &result)
	} else {
		c.processHTML(ctx, resp, cfg, seedDomain, &result)
	}

	return result
}

// fetch issues the HTTP GET. Redirects are followed by the client.
func (c *Crawler) fetch(ctx context.Context, rawURL string, cfg domain.CrawlConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	return c.client.Do(req)
}

// processPDF handles a PDF response: size gate, hash, then extraction.
func (c *Crawler) processPDF(ctx context.Context, resp *http.Response, cfg domain.CrawlConfig, result *domain.CrawlResult) {
	result.ContentType = domain.ContentTypePDF

	// Oversized PDFs are rejected on Content-Length before extraction.
	maxBytes := int64(cfg.MaxPDFMB * 1024 * 1024)
	if resp.ContentLength > maxBytes {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("pdf_too_large: %.1fMB", float64(resp.ContentLength)/1024/1024)
		c.stats.URLsSkipped++
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = err.Error()
		c.stats.URLsFailed++
		return
	}
	result.ContentHash = hashBytes(body)

	norm, err := c.pdf.Normalise(ctx, &domain.RawContent{
		URI:      result.URL,
		MIMEType: "application/pdf",
		Content:  body,
	})
	if err != nil || norm.Text == "" {
		result.Error = "pdf text extraction failed"
		c.stats.URLsFailed++
		return
	}

	result.Text = norm.Text
	result.Encoding = norm.Encoding
	result.Success = true
	c.stats.URLsSuccess++
}

// processHTML handles an HTML response: hash, decode, extract text and
// links. Text that fails the encoding quality check is still recorded but
// marked failed, distinguishing "unusable" from "unextractable".
func (c *Crawler) processHTML(
	ctx context.Context,
	resp *http.Response,
	cfg domain.CrawlConfig,
	seedDomain string,
	result *domain.CrawlResult,
) {
	result.ContentType = domain.ContentTypeHTML

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = err.Error()
		c.stats.URLsFailed++
		return
	}
	result.ContentHash = hashBytes(body)

	norm, err := c.html.Normalise(ctx, &domain.RawContent{
		URI:          result.URL,
		MIMEType:     "text/html",
		Content:      body,
		MaxTextChars: cfg.MaxTextChars,
		FollowLinks:  cfg.FollowLinks,
	})
	if err != nil {
		result.Error = err.Error()
		c.stats.URLsFailed++
		return
	}

	result.Title = norm.Title
	result.Encoding = norm.Encoding

	switch {
	case norm.Text != "" && norm.EncodingOK:
		result.Text = norm.Text
		result.Links = c.filterLinks(norm.Links, cfg, seedDomain)
		result.Success = true
		c.stats.URLsSuccess++
	case norm.Text != "":
		result.Text = norm.Text
		result.Error = "encoding_issues"
		c.stats.URLsFailed++
	default:
		result.Error = "no_text_extracted"
		c.stats.URLsFailed++
	}
}

// filterLinks applies the allow-policy and visited-set filter to discovered
// links, preserving order and removing duplicates.
func (c *Crawler) filterLinks(links []string, cfg domain.CrawlConfig, seedDomain string) []string {
	var out []string
	seen := make(map[string]bool, len(links))
	for _, link := range links {
		if seen[link] || c.visited[link] {
			continue
		}
		seen[link] = true
		if allowed, _ := urlAllowed(link, cfg, seedDomain); allowed {
			out = append(out, link)
		}
	}
	return out
}

// urlAllowed checks a URL against the crawl policy. The domain must be in
// the allowed set (or match the first seed's domain when the set is empty),
// and the path must start with an allowed prefix when prefixes are
// configured.
func urlAllowed(rawURL string, cfg domain.CrawlConfig, seedDomain string) (bool, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Sprintf("invalid_url: %s", rawURL)
	}

	if len(cfg.AllowedDomains) > 0 {
		found := false
		for _, d := range cfg.AllowedDomains {
			if parsed.Host == d {
				found = true
				break
			}
		}
		if !found {
			return false, fmt.Sprintf("domain_not_allowed: %s", parsed.Host)
		}
	} else if parsed.Host != seedDomain {
		return false, fmt.Sprintf("different_domain: %s", parsed.Host)
	}

	if len(cfg.AllowedPathPrefixes) > 0 {
		allowed := false
		for _, prefix := range cfg.AllowedPathPrefixes {
			if strings.HasPrefix(parsed.Path, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, fmt.Sprintf("path_not_allowed: %s", parsed.Path)
		}
	}

	return true, ""
}

// newPolitenessLimiter builds the inter-request throttle. A zero delay
// yields an unlimited limiter, used in tests.
func newPolitenessLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func urlDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
