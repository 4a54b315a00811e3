// Package html extracts visible text, title, and outbound links from HTML
// pages.
package html

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/logger"
	"github.com/aoba-labs/lawdex/internal/textenc"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// skipTags are non-content elements removed before text extraction.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
}

var multiBlankLines = regexp.MustCompile(`\n\s*\n`)

// Normaliser handles HTML documents.
type Normaliser struct {
	detector *textenc.Detector
}

// New creates an HTML normaliser using the given encoding detector.
func New(detector *textenc.Detector) *Normaliser {
	if detector == nil {
		detector = textenc.NewDetector()
	}
	return &Normaliser{detector: detector}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Normalise decodes the page bytes, strips non-content elements, and
// extracts visible text, the title, and resolved outbound links.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, encName, encOK := n.detector.Normalize(raw.Content, raw.URI)

	doc, err := xhtml.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	result := &driven.NormaliseResult{
		Encoding:   encName,
		EncodingOK: encOK,
		Title:      findTitle(doc),
	}

	var sb strings.Builder
	collectText(doc, &sb)

	content := multiBlankLines.ReplaceAllString(sb.String(), "\n\n")
	content = strings.TrimSpace(content)

	// The encoding verdict is taken on the visible text, not the whole
	// decoded document with its scripts and markup.
	if content != "" {
		result.EncodingOK = n.detector.EncodingOK(content)
	}

	if raw.MaxTextChars > 0 {
		if runes := []rune(content); len(runes) > raw.MaxTextChars {
			logger.Warn("text too long (%d chars), truncating: %s", len(runes), raw.URI)
			content = string(runes[:raw.MaxTextChars])
			result.Truncated = true
		}
	}
	result.Text = content

	if raw.FollowLinks {
		result.Links = collectLinks(doc, raw.URI)
	}

	return result, nil
}

// findTitle returns the trimmed contents of the first <title> element.
func findTitle(n *xhtml.Node) string {
	if n.Type == xhtml.ElementNode && n.Data == "title" {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xhtml.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// collectText appends the trimmed text of all visible text nodes, one per
// line, skipping non-content subtrees.
func collectText(n *xhtml.Node, sb *strings.Builder) {
	if n.Type == xhtml.ElementNode && skipTags[n.Data] {
		return
	}
	if n.Type == xhtml.TextNode {
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(trimmed)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// collectLinks returns all href targets resolved against the base URI.
// Policy filtering and de-duplication are the crawler's responsibility.
func collectLinks(doc *xhtml.Node, baseURI string) []string {
	base, err := url.Parse(baseURI)
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				resolved.Fragment = ""
				links = append(links, resolved.String())
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}
