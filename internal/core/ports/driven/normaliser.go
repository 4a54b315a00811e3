package driven

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// Normaliser turns raw fetched bytes into extracted text.
// Each normaliser handles specific MIME types (HTML, PDF).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts text from the raw content.
	Normalise(ctx context.Context, raw *domain.RawContent) (*NormaliseResult, error)
}

// NormaliseResult contains the output of text extraction.
type NormaliseResult struct {
	// Text is the extracted plain text.
	Text string

	// Title is the document title, if the format carries one.
	Title string

	// Links are outbound links resolved against the source URI (HTML only).
	Links []string

	// Encoding is the detected source encoding.
	Encoding string

	// EncodingOK reports whether the text passed the encoding quality check.
	EncodingOK bool

	// Truncated reports whether Text was cut at MaxTextChars.
	Truncated bool
}
