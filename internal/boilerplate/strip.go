// Package boilerplate removes digitisation front and back matter from
// public-domain texts. Two strategies exist: bracketing markers for sources
// that carry them reliably, and a keyword heuristic over the lead-in block
// for sources where they do not.
package boilerplate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Strategy names a header stripping strategy.
type Strategy string

const (
	None     Strategy = "none"
	Markers  Strategy = "markers"
	Keywords Strategy = "keywords"
)

const (
	// DefaultScanLen is the number of leading characters the keyword strategy examines.
	DefaultScanLen = 10000
	// DefaultMargin is the number of characters cut past the last keyword hit.
	DefaultMargin = 100
)

var (
	startMarkerRE = regexp.MustCompile(`(?s)\*\*\* START OF THIS PROJECT GUTENBERG EBOOK.*?\*\*\*`)
	endMarkerRE   = regexp.MustCompile(`(?s)\*\*\* END OF THIS PROJECT GUTENBERG EBOOK.*?\*\*\*`)
	keywordRE     = regexp.MustCompile(`(?i)(produced by|internet|scanner|executive director|gutenberg|computer|html)`)
	crlfRE        = regexp.MustCompile(`\r+\n`)
)

// Stripper removes boilerplate from a text.
type Stripper interface {
	Strip(text string) string
}

// ParseStrategy converts a config value into a Strategy. Empty means None.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", None:
		return None, nil
	case Markers:
		return Markers, nil
	case Keywords:
		return Keywords, nil
	default:
		return "", eris.Errorf("boilerplate: unknown strategy %q (valid: none, markers, keywords)", s)
	}
}

// New returns the default Stripper for a strategy.
func New(s Strategy) Stripper {
	switch s {
	case Markers:
		return NewMarkerStripper()
	case Keywords:
		return NewKeywordStripper()
	default:
		return passthrough{}
	}
}

type passthrough struct{}

func (passthrough) Strip(text string) string { return text }

// MarkerStripper cuts everything through the start marker and everything
// from the end marker onward.
type MarkerStripper struct {
	Start *regexp.Regexp
	End   *regexp.Regexp
}

// NewMarkerStripper returns a MarkerStripper for Project Gutenberg markers.
func NewMarkerStripper() *MarkerStripper {
	return &MarkerStripper{Start: startMarkerRE, End: endMarkerRE}
}

// Strip applies the marker strategy. When the start marker repeats, the cut
// is made after the last occurrence so a second pass finds nothing to remove.
func (m *MarkerStripper) Strip(text string) string {
	text = normalizeNewlines(text)

	if starts := m.Start.FindAllStringIndex(text, -1); len(starts) > 0 {
		text = text[starts[len(starts)-1][1]:]
	}
	if loc := m.End.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}

// KeywordStripper truncates the lead-in block through the last boilerplate
// keyword plus a margin. Boilerplate scattered through the body is left in
// place.
type KeywordStripper struct {
	Pattern *regexp.Regexp
	ScanLen int
	Margin  int
}

// NewKeywordStripper returns a KeywordStripper with default scan length and margin.
func NewKeywordStripper() *KeywordStripper {
	return &KeywordStripper{Pattern: keywordRE, ScanLen: DefaultScanLen, Margin: DefaultMargin}
}

// Strip applies the keyword strategy.
func (k *KeywordStripper) Strip(text string) string {
	text = normalizeNewlines(text)

	split := runeOffset(text, 0, k.ScanLen)
	header, rest := text[:split], text[split:]

	if matches := k.Pattern.FindAllStringIndex(header, -1); len(matches) > 0 {
		cut := runeOffset(header, matches[len(matches)-1][0], k.Margin)
		header = header[cut:]
	}
	return strings.TrimSpace(header + rest)
}

// normalizeNewlines folds CRLF and any stray carriage returns before a
// newline into a single "\n".
func normalizeNewlines(text string) string {
	return crlfRE.ReplaceAllString(text, "\n")
}

// runeOffset advances n characters from byte position p, clipped to len(s).
func runeOffset(s string, p, n int) int {
	for ; n > 0 && p < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[p:])
		p += size
	}
	return p
}
