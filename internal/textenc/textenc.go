// Package textenc normalizes raw bytes into valid text. It tries a fixed,
// ordered list of candidate encodings and accepts the first decode whose
// garbage ratio (replacement and non-whitespace control characters) stays
// below a threshold. When no candidate qualifies, it falls back to lossy
// UTF-8 and reports failure so callers can flag the page as
// encoding-degraded rather than silently emit garbage.
package textenc

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	"github.com/aoba-labs/lawdex/internal/logger"
)

// FallbackEncoding marks text produced by the lossy UTF-8 fallback.
const FallbackEncoding = "utf-8-fallback"

// DefaultMaxGarbageRatio is the accepted fraction of garbage characters.
const DefaultMaxGarbageRatio = 0.01

// Candidate pairs an encoding name with its decoder. A nil Encoding means
// strict UTF-8 validation.
type Candidate struct {
	Name string
	Enc  encoding.Encoding
}

// DefaultCandidates returns the candidate list in probe order. CP932 and
// Shift-JIS share golang.org/x/text's ShiftJIS table, which covers the
// Windows extensions.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Name: "utf-8", Enc: nil},
		{Name: "shift_jis", Enc: japanese.ShiftJIS},
		{Name: "euc-jp", Enc: japanese.EUCJP},
		{Name: "iso-2022-jp", Enc: japanese.ISO2022JP},
		{Name: "latin-1", Enc: charmap.ISO8859_1},
	}
}

// Detector normalizes bytes to text with encoding detection. The candidate
// list and garbage threshold are configurable to ease testing with synthetic
// garbage ratios.
type Detector struct {
	candidates []Candidate
	maxGarbage float64
}

// NewDetector creates a Detector with the default candidates and threshold.
func NewDetector() *Detector {
	return &Detector{
		candidates: DefaultCandidates(),
		maxGarbage: DefaultMaxGarbageRatio,
	}
}

// NewDetectorWith creates a Detector with a custom candidate list and
// garbage threshold.
func NewDetectorWith(candidates []Candidate, maxGarbage float64) *Detector {
	return &Detector{candidates: candidates, maxGarbage: maxGarbage}
}

// Normalize decodes raw bytes, returning the text, the accepted encoding
// name (or FallbackEncoding), and whether a candidate passed the quality
// check. The url parameter is used for logging only.
func (d *Detector) Normalize(raw []byte, url string) (string, string, bool) {
	for _, cand := range d.candidates {
		text, err := decode(cand, raw)
		if err != nil {
			continue
		}
		if d.EncodingOK(text) {
			return text, cand.Name, true
		}
	}

	logger.Warn("encoding detection failed, using lossy utf-8: %s", url)
	text := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	return text, FallbackEncoding, false
}

// EncodingOK reports whether text passes the garbage-ratio check.
// Empty text never passes.
func (d *Detector) EncodingOK(text string) bool {
	if text == "" {
		return false
	}
	return GarbageRatio(text) < d.maxGarbage
}

// GarbageRatio returns the fraction of characters that are replacement
// characters or control characters other than tab, newline, and carriage
// return.
func GarbageRatio(text string) float64 {
	if text == "" {
		return 1.0
	}
	var garbage, total int
	for _, r := range text {
		total++
		if isGarbage(r) {
			garbage++
		}
	}
	return float64(garbage) / float64(total)
}

func isGarbage(r rune) bool {
	if r == utf8.RuneError {
		return true
	}
	if r >= 0x20 {
		return false
	}
	return r != '\t' && r != '\n' && r != '\r'
}

func decode(cand Candidate, raw []byte) (string, error) {
	if cand.Enc == nil {
		// Strict UTF-8: any invalid sequence disqualifies the candidate so
		// the real encoding further down the list gets its chance. Lossy
		// replacement happens only on the final fallback path.
		if !utf8.Valid(raw) {
			return "", errors.New("invalid utf-8")
		}
		return string(raw), nil
	}

	out, err := cand.Enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
