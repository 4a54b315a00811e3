package domain

import "time"

// Default crawl limits.
const (
	DefaultMaxURLs      = 300
	DefaultMaxDepth     = 2
	DefaultMaxPDFMB     = 10.0
	DefaultMaxTextChars = 250000
	DefaultRequestDelay = time.Second
	DefaultUserAgent    = "lawdex-crawler/1.0"
)

// CrawlConfig is the immutable per-crawl configuration.
type CrawlConfig struct {
	// SeedURLs are the starting URLs, crawled at depth 0.
	SeedURLs []string

	// AllowedPathPrefixes restricts crawling to URLs whose path starts with
	// one of these prefixes. Empty means all paths are allowed.
	AllowedPathPrefixes []string

	// AllowedDomains restricts crawling to these domains. Empty means only
	// the first seed's domain is allowed.
	AllowedDomains []string

	// MaxURLs caps the number of successfully fetched URLs.
	MaxURLs int

	// MaxDepth caps the link-following depth. Seeds are depth 0.
	MaxDepth int

	// MaxPDFMB caps PDF downloads, checked against Content-Length.
	MaxPDFMB float64

	// MaxTextChars truncates extracted page text.
	MaxTextChars int

	// RequestDelay is the politeness pause between fetches.
	RequestDelay time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// FollowLinks controls whether discovered links are enqueued.
	FollowLinks bool
}

// DefaultCrawlConfig returns a CrawlConfig with the default limits applied.
// Seeds and allow-lists are left for the caller.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxURLs:      DefaultMaxURLs,
		MaxDepth:     DefaultMaxDepth,
		MaxPDFMB:     DefaultMaxPDFMB,
		MaxTextChars: DefaultMaxTextChars,
		RequestDelay: DefaultRequestDelay,
		UserAgent:    DefaultUserAgent,
		FollowLinks:  true,
	}
}

// ContentType classifies a fetched resource.
type ContentType string

const (
	ContentTypeHTML    ContentType = "html"
	ContentTypePDF     ContentType = "pdf"
	ContentTypeUnknown ContentType = "unknown"
)

// CrawlResult records the outcome of crawling a single URL. It is created
// when the URL is dequeued from the frontier and immutable afterwards.
type CrawlResult struct {
	URL         string
	Domain      string
	ContentType ContentType

	// Text is the extracted text, empty when extraction failed or the URL
	// was skipped.
	Text string

	// Title is the page title (HTML only).
	Title string

	// Encoding is the detected text encoding, or "pdf" for PDF content.
	Encoding string

	// ContentHash is the SHA-256 of the raw response bytes.
	ContentHash string

	// CrawledAt is the UTC fetch timestamp.
	CrawledAt time.Time

	Success bool
	Error   string

	Skipped    bool
	SkipReason string

	// Links are the outbound links discovered on an HTML page, already
	// filtered through the crawl policy.
	Links []string

	// Depth is the BFS depth at which the URL was dequeued.
	Depth int
}

// CrawlStats holds run-scoped counters, reset at the start of each crawl.
type CrawlStats struct {
	URLsAttempted int
	URLsSuccess   int
	URLsFailed    int
	URLsSkipped   int
}
