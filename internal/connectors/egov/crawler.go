// Package egov fetches statute data from the e-Gov law API and extracts
// operative articles from its XML payloads.
package egov

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/logger"
)

// Default configuration values.
const (
	DefaultAPIBaseURL         = "https://laws.e-gov.go.jp/api/1/lawdata"
	DefaultDisplayURLTemplate = "https://elaws.e-gov.go.jp/document?lawid=%s"
	DefaultMaxFetchCount      = 500
	DefaultRequestDelay       = time.Second
	DefaultTimeout            = 30 * time.Second
	DefaultHealthTimeout      = 5 * time.Second

	// MaxRetries caps API request attempts.
	MaxRetries = 3

	// rawXMLPrefixLen is how much of the response is kept for diagnostics.
	rawXMLPrefixLen = 500
)

// Config holds configuration for the e-Gov crawler.
type Config struct {
	// APIBaseURL is the law-data endpoint (default: the public e-Gov API).
	APIBaseURL string

	// DisplayURLTemplate formats the human-facing page URL for a law ID.
	DisplayURLTemplate string

	// MaxFetchCount is the instance-lifetime fetch ceiling.
	MaxFetchCount int

	// RequestDelay is the polite pause between bulk fetches.
	RequestDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// HealthCheck enables the display-URL reachability probe.
	HealthCheck bool

	// HealthTimeout is the probe's own timeout.
	HealthTimeout time.Duration
}

// Crawler fetches laws from the e-Gov API. The fetch counter persists for
// the crawler instance's lifetime as a safety ceiling across jobs.
type Crawler struct {
	cfg        Config
	client     *http.Client
	fetchCount int

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCrawler creates an e-Gov crawler. Zero-valued config fields take
// defaults.
func NewCrawler(cfg Config) *Crawler {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.DisplayURLTemplate == "" {
		cfg.DisplayURLTemplate = DefaultDisplayURLTemplate
	}
	if cfg.MaxFetchCount == 0 {
		cfg.MaxFetchCount = DefaultMaxFetchCount
	}
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = DefaultRequestDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}

	return &Crawler{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepCtx,
	}
}

// Remaining returns how many fetches are left before the safety ceiling.
func (c *Crawler) Remaining() int {
	left := c.cfg.MaxFetchCount - c.fetchCount
	if left < 0 {
		return 0
	}
	return left
}

// ResetQuota resets the fetch counter, for callers starting an independent
// job on the same instance.
func (c *Crawler) ResetQuota() {
	c.fetchCount = 0
}

// FetchLaw fetches a single law and extracts its main-provision articles.
// layer tags the result as a law or subordinate order; parentLawID links an
// order to its parent.
func (c *Crawler) FetchLaw(ctx context.Context, lawID string, layer domain.LawLayer, parentLawID string) domain.LawResult {
	if layer == "" {
		layer = domain.LayerLaw
	}

	if c.fetchCount >= c.cfg.MaxFetchCount {
		logger.Warn("e-gov fetch limit reached: %d/%d", c.fetchCount, c.cfg.MaxFetchCount)
		return domain.LawResult{
			LawID:     lawID,
			Success:   false,
			Error:     domain.ErrFetchLimit.Error(),
			Layer:     layer,
			URLStatus: domain.URLStatusUnknown,
		}
	}

	sourceURL := c.cfg.APIBaseURL + "/" + lawID

	xmlText, err := c.makeAPIRequest(ctx, lawID)
	if err != nil {
		return domain.LawResult{
			LawID:     lawID,
			SourceURL: sourceURL,
			Success:   false,
			Error:     err.Error(),
			Layer:     layer,
			URLStatus: domain.URLStatusUnknown,
		}
	}
	c.fetchCount++

	displayURL, urlStatus := c.checkURLHealth(ctx, lawID)

	lawName, lawNum := extractLawMeta(xmlText, lawID)
	articles := extractArticles(xmlText)

	return domain.LawResult{
		LawID:       lawID,
		LawName:     lawName,
		LawNum:      lawNum,
		SourceURL:   sourceURL,
		Articles:    articles,
		RawXML:      prefix(xmlText, rawXMLPrefixLen),
		UpdatedAt:   time.Now().UTC(),
		ContentHash: contentHash(lawID, lawName, articles),
		Success:     true,
		Layer:       layer,
		ParentLawID: parentLawID,
		DisplayURL:  displayURL,
		URLStatus:   urlStatus,
	}
}

// FetchAll fetches multiple laws sequentially with a polite delay between
// requests. One identifier's failure never fails the batch: the returned
// slice has one result per ID.
func (c *Crawler) FetchAll(ctx context.Context, lawIDs []string) []domain.LawResult {
	logger.Info("fetching %d laws from e-gov api", len(lawIDs))

	results := make([]domain.LawResult, 0, len(lawIDs))
	for i, lawID := range lawIDs {
		logger.Info("[%d/%d] fetching: %s", i+1, len(lawIDs), lawID)
		results = append(results, c.FetchLaw(ctx, lawID, domain.LayerLaw, ""))

		if i < len(lawIDs)-1 {
			if err := c.sleep(ctx, c.cfg.RequestDelay); err != nil {
				logger.Warn("bulk fetch interrupted: %v", err)
				// Remaining IDs still get one result each.
				for _, rest := range lawIDs[i+1:] {
					results = append(results, domain.LawResult{
						LawID:     rest,
						Success:   false,
						Error:     err.Error(),
						Layer:     domain.LayerLaw,
						URLStatus: domain.URLStatusUnknown,
					})
				}
				return results
			}
		}
	}

	success := 0
	for _, r := range results {
		if r.Success {
			success++
		}
	}
	logger.Info("fetch complete: %d/%d success", success, len(results))

	return results
}

// makeAPIRequest performs the GET with bounded retry. Backoff is
// differentiated by failure class: 429 waits 60s per attempt, 5xx waits 10s
// per attempt, transport errors and timeouts wait 5s per attempt. 404 and
// any other status are terminal.
func (c *Crawler) makeAPIRequest(ctx context.Context, lawID string) (string, error) {
	url := c.cfg.APIBaseURL + "/" + lawID

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		logger.Info("fetching e-gov api: law_id=%s (attempt %d)", lawID, attempt)

		body, status, err := c.doGet(ctx, url)
		if err != nil {
			logger.Warn("request failed: law_id=%s (%v)", lawID, err)
			if attempt < MaxRetries {
				if serr := c.sleep(ctx, time.Duration(attempt)*5*time.Second); serr != nil {
					return "", serr
				}
				continue
			}
			break
		}

		switch {
		case status == http.StatusOK:
			return body, nil

		case status == http.StatusNotFound:
			logger.Warn("law not found: law_id=%s (404)", lawID)
			return "", fmt.Errorf("law not found (404): %s", lawID)

		case status == http.StatusTooManyRequests:
			wait := time.Duration(attempt) * 60 * time.Second
			logger.Warn("rate limited (429), waiting %s", wait)
			if serr := c.sleep(ctx, wait); serr != nil {
				return "", serr
			}

		case status >= 500:
			wait := time.Duration(attempt) * 10 * time.Second
			logger.Warn("server error (%d), waiting %s", status, wait)
			if serr := c.sleep(ctx, wait); serr != nil {
				return "", serr
			}

		default:
			return "", fmt.Errorf("unexpected status %d for law %s", status, lawID)
		}
	}

	logger.Warn("all retries exhausted for law_id=%s", lawID)
	return "", fmt.Errorf("api request failed: %s", lawID)
}

func (c *Crawler) doGet(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", "lawdex/1.0 (government law api client)")
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// checkURLHealth probes the human-facing display URL with a HEAD request.
// Disabled by default; never blocks the primary fetch.
func (c *Crawler) checkURLHealth(ctx context.Context, lawID string) (string, domain.URLStatus) {
	displayURL := fmt.Sprintf(c.cfg.DisplayURLTemplate, lawID)

	if !c.cfg.HealthCheck {
		return displayURL, domain.URLStatusUnknown
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, displayURL, http.NoBody)
	if err != nil {
		return displayURL, domain.URLStatusBroken
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("url health check failed: %s (%v)", lawID, err)
		return displayURL, domain.URLStatusBroken
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return displayURL, domain.URLStatusValid
	}
	return displayURL, domain.URLStatusBroken
}

// contentHash fingerprints a law for change detection: the ID, name, and
// the first five articles' 50-character prefixes, without hashing the whole
// document.
func contentHash(lawID, lawName string, articles []domain.Article) string {
	parts := make([]string, 0, 5)
	for i, a := range articles {
		if i >= 5 {
			break
		}
		parts = append(parts, prefix(a.Text, 50))
	}
	content := lawID + "_" + lawName + "_" + strings.Join(parts, "_")
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
