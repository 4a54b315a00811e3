package domain

import "time"

// LawLayer distinguishes top-level laws from subordinate orders.
type LawLayer string

const (
	LayerLaw   LawLayer = "law"
	LayerOrder LawLayer = "order"
)

// URLStatus is the result of the optional display-URL health probe.
type URLStatus string

const (
	URLStatusValid   URLStatus = "valid"
	URLStatusBroken  URLStatus = "broken"
	URLStatusUnknown URLStatus = "unknown"
)

// Article is one operative article extracted from a law's main provision.
type Article struct {
	// ArticleNumber is the Num attribute, or a synthesized ordinal.
	ArticleNumber string

	// Caption is the parenthesized article caption.
	Caption string

	// Title is the article title (e.g. 第一条).
	Title string

	// Text combines caption, title, and the joined paragraph bodies.
	Text string

	// SectionType tags where the article came from.
	SectionType string
}

// LawResult records the outcome of fetching one law from the government API.
// Immutable after construction.
type LawResult struct {
	LawID     string
	LawName   string
	LawNum    string
	SourceURL string

	Articles []Article

	// RawXML holds the first 500 characters of the response for diagnostics.
	RawXML string

	UpdatedAt   time.Time
	ContentHash string

	Success bool
	Error   string

	// Layer marks whether this is a law or a subordinate order.
	Layer LawLayer

	// ParentLawID links an order back to its parent law.
	ParentLawID string

	// DisplayURL is the human-facing page for this law.
	DisplayURL string

	// URLStatus is the display-URL health, "unknown" unless probing is on.
	URLStatus URLStatus
}
