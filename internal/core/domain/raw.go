package domain

// RawContent represents opaque bytes fetched by a crawler, before text
// extraction.
type RawContent struct {
	// URI is the original location, used for link resolution and logging.
	URI string

	// MIMEType is the content type (e.g., "text/html", "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// MaxTextChars truncates extracted text when positive.
	MaxTextChars int

	// FollowLinks controls whether outbound links are collected.
	FollowLinks bool
}
