// Package anachronism flags texts that contain unambiguous references to
// post-1900 science and technology. It is a cheap content safety net layered
// on top of the metadata year filter, not a classifier.
package anachronism

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSnippetLen is the audit snippet window in characters.
const DefaultSnippetLen = 50

var modernPatterns = []string{
	// theories
	`\b(general|special) relativity\b`,
	`\bquantum (?:mechanics|theory)\b`,
	// inventions
	`\bairplane\b`,
	`\btelevision\b`,
	`\bcomputer\b`,
	`\binternet\b`,
	`\bjet engine\b`,
	`\blaser\b`,
	`\bsmartphone\b`,
}

var modernRE = regexp.MustCompile(`(?i)` + strings.Join(modernPatterns, "|"))

// Match is the first modern-term hit in a text. Start and End are byte offsets.
type Match struct {
	Term  string
	Start int
	End   int
}

// IsModern reports whether text contains any modern-term pattern, case-insensitively.
func IsModern(text string) bool {
	return modernRE.MatchString(text)
}

// Find returns the leftmost modern-term match.
func Find(text string) (Match, bool) {
	loc := modernRE.FindStringIndex(text)
	if loc == nil {
		return Match{}, false
	}
	return Match{Term: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}, true
}

// Highlight rewrites every modern-term match in text with match(term) and
// every stretch between matches with plain(segment). A nil plain keeps
// segments unchanged.
func Highlight(text string, plain, match func(string) string) string {
	if plain == nil {
		plain = func(s string) string { return s }
	}
	var b strings.Builder
	last := 0
	for _, loc := range modernRE.FindAllStringIndex(text, -1) {
		b.WriteString(plain(text[last:loc[0]]))
		b.WriteString(match(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(plain(text[last:]))
	return b.String()
}

// ExtractSnippet returns a window of length characters centered on the match
// midpoint, clipped to the text, and the character offset of the match start.
func ExtractSnippet(text string, m Match, length int) (int, string) {
	if length <= 0 {
		length = DefaultSnippetLen
	}
	offset := utf8.RuneCountInString(text[:m.Start])
	matchRunes := utf8.RuneCountInString(text[m.Start:m.End])

	mid := forward(text, m.Start, matchRunes/2)
	half := length / 2
	start := backward(text, mid, half)
	end := forward(text, mid, length-half)
	return offset, text[start:end]
}

// forward advances n runes from byte position p, stopping at the end of s.
func forward(s string, p, n int) int {
	for ; n > 0 && p < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[p:])
		p += size
	}
	return p
}

// backward retreats n runes from byte position p, stopping at 0.
func backward(s string, p, n int) int {
	for ; n > 0 && p > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:p])
		p -= size
	}
	return p
}

// Head returns the first n characters of text.
func Head(text string, n int) string {
	return text[:forward(text, 0, n)]
}
