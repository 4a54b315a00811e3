// Package chunker splits document text into token-bounded, overlapping
// chunks along semantic boundaries.
package chunker

import (
	"regexp"
	"strings"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// Default budgets.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

// defaultSeparators is the boundary cascade, tried most-semantic first:
// paragraph breaks, Japanese statute article markers, numbered sections,
// markdown headers, then bare newlines as a last resort.
var defaultSeparators = []*regexp.Regexp{
	regexp.MustCompile(`\n\n+`),
	regexp.MustCompile(`\n第[一二三四五六七八九十百千]+条`),
	regexp.MustCompile(`\n第\d+条`),
	regexp.MustCompile(`\n[第（(]\d+[）)]`),
	regexp.MustCompile(`\n#{1,3}\s`),
	regexp.MustCompile(`\n`),
}

// cjkChars matches hiragana, katakana and the unified ideograph block.
var cjkChars = regexp.MustCompile(`[\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{4e00}-\x{9fff}]`)

// SemanticChunker splits text at semantic boundaries while keeping each
// chunk within an estimated token budget.
type SemanticChunker struct {
	maxTokens     int
	overlapTokens int
	separators    []*regexp.Regexp
}

// Option configures the chunker.
type Option func(*SemanticChunker)

// WithMaxTokens sets the per-chunk token budget.
func WithMaxTokens(n int) Option {
	return func(c *SemanticChunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap budget carried between chunks.
func WithOverlapTokens(n int) Option {
	return func(c *SemanticChunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// WithSeparators replaces the boundary cascade.
func WithSeparators(patterns []*regexp.Regexp) Option {
	return func(c *SemanticChunker) {
		if len(patterns) > 0 {
			c.separators = patterns
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *SemanticChunker {
	c := &SemanticChunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
		separators:    defaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into chunks attributed to source. baseMetadata is
// copied into every chunk's metadata. Empty or whitespace-only input
// yields no chunks.
func (c *SemanticChunker) Chunk(text, source string, baseMetadata map[string]any) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	segments := c.split(text)

	var chunks []domain.Chunk
	current := ""

	emit := func(content string, forceSplit bool) {
		meta := make(map[string]any, len(baseMetadata)+3)
		for k, v := range baseMetadata {
			meta[k] = v
		}
		meta["chunk_index"] = len(chunks)
		meta["token_count"] = EstimateTokens(content)
		if forceSplit {
			meta["force_split"] = true
		}
		chunks = append(chunks, domain.Chunk{
			Content:  content,
			ChunkID:  domain.ChunkID(source, len(chunks)),
			Source:   source,
			Metadata: meta,
		})
	}

	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		combined := segment
		if current != "" {
			combined = current + "\n\n" + segment
		}

		if EstimateTokens(combined) <= c.maxTokens {
			current = combined
			continue
		}

		// Over budget: flush the accumulation, then start again from an
		// overlap tail plus the segment that triggered the flush.
		hadPrevious := current != ""
		if hadPrevious {
			emit(current, false)
		}

		if hadPrevious && c.overlapTokens > 0 {
			if overlap := c.overlapTail(current); overlap != "" {
				current = overlap + "\n\n" + segment
			} else {
				current = segment
			}
		} else {
			current = segment
		}

		// An atomic segment can still exceed the budget on its own.
		for EstimateTokens(current) > c.maxTokens {
			runes := []rune(current)
			split := c.findSplitPoint(runes)
			emit(string(runes[:split]), true)
			current = strings.TrimSpace(string(runes[split:]))
		}
	}

	if current != "" {
		emit(current, false)
	}

	return chunks
}

// split runs the separator cascade: each pattern re-splits only segments
// still over budget, so segments already small enough keep their internal
// boundaries intact.
func (c *SemanticChunker) split(text string) []string {
	segments := []string{text}
	for _, sep := range c.separators {
		next := make([]string, 0, len(segments))
		for _, segment := range segments {
			if EstimateTokens(segment) <= c.maxTokens {
				next = append(next, segment)
				continue
			}
			for _, part := range sep.Split(segment, -1) {
				if strings.TrimSpace(part) != "" {
					next = append(next, part)
				}
			}
		}
		segments = next
	}
	return segments
}

// EstimateTokens estimates the token count of text. CJK characters average
// fewer characters per token than Latin script, so the two classes are
// counted at different ratios.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	cjk := len(cjkChars.FindAllString(text, -1))
	other := len([]rune(text)) - cjk
	return int(float64(cjk)/1.5) + other/4
}

// overlapTail takes a conservative 2x-overlap-budget character tail from
// the emitted chunk, trimmed forward to the first sentence boundary when
// one leaves enough text behind it.
func (c *SemanticChunker) overlapTail(text string) string {
	charsNeeded := c.overlapTokens * 2

	runes := []rune(text)
	if len(runes) <= charsNeeded {
		return text
	}

	overlap := runes[len(runes)-charsNeeded:]

	if idx := indexRune(overlap, '。'); idx > 0 && idx < len(overlap)-10 {
		overlap = overlap[idx+1:]
	}

	return strings.TrimSpace(string(overlap))
}

// findSplitPoint locates a cut offset near the character position that
// corresponds to the token budget, preferring a sentence-ending or newline
// boundary within 100 characters of it. With no boundary in the window the
// cut degrades to the raw offset.
func (c *SemanticChunker) findSplitPoint(runes []rune) int {
	targetChars := c.maxTokens * 2
	if len(runes) <= targetChars {
		return len(runes)
	}

	start := targetChars - 100
	if start < 0 {
		start = 0
	}
	end := targetChars + 100
	if end > len(runes) {
		end = len(runes)
	}
	region := string(runes[start:end])

	for _, marker := range []string{"。", ".\n", "\n\n", "\n"} {
		if pos := lastIndexRunes(region, marker); pos > 0 {
			return start + pos + len([]rune(marker))
		}
	}

	return targetChars
}

func indexRune(runes []rune, r rune) int {
	for i, c := range runes {
		if c == r {
			return i
		}
	}
	return -1
}

// lastIndexRunes is strings.LastIndex in rune offsets.
func lastIndexRunes(s, marker string) int {
	byteIdx := strings.LastIndex(s, marker)
	if byteIdx < 0 {
		return -1
	}
	return len([]rune(s[:byteIdx]))
}
