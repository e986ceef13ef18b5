package boilerplate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input string
		want  Strategy
		err   bool
	}{
		{"", None, false},
		{"none", None, false},
		{"markers", Markers, false},
		{"MARKERS", Markers, false},
		{" keywords ", Keywords, false},
		{"regex", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.err {
			assert.Error(t, err, "input: %q", tt.input)
			continue
		}
		require.NoError(t, err, "input: %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNew_Passthrough(t *testing.T) {
	text := "  *** START OF THIS PROJECT GUTENBERG EBOOK X ***\r\nbody  "
	assert.Equal(t, text, New(None).Strip(text))
}

func TestMarkerStripper_StartMarker(t *testing.T) {
	text := "*** START OF THIS PROJECT GUTENBERG EBOOK FOO ***\nReal content here."
	assert.Equal(t, "Real content here.", New(Markers).Strip(text))
}

func TestMarkerStripper_BothMarkers(t *testing.T) {
	text := "Title page\r\nProduced by volunteers\r\n" +
		"*** START OF THIS PROJECT GUTENBERG EBOOK MOBY DICK ***\r\n\r\n" +
		"Call me Ishmael.\r\nSome years ago.\r\n" +
		"*** END OF THIS PROJECT GUTENBERG EBOOK MOBY DICK ***\r\nLicense text."
	assert.Equal(t, "Call me Ishmael.\nSome years ago.", New(Markers).Strip(text))
}

func TestMarkerStripper_MarkerSpansLines(t *testing.T) {
	text := "*** START OF THIS PROJECT GUTENBERG EBOOK\nA LONG\nTITLE ***\nBody."
	assert.Equal(t, "Body.", New(Markers).Strip(text))
}

func TestMarkerStripper_NoMarkers(t *testing.T) {
	assert.Equal(t, "plain text", New(Markers).Strip("  plain text \n"))
}

func TestMarkerStripper_EndOnly(t *testing.T) {
	text := "Body first.\n*** END OF THIS PROJECT GUTENBERG EBOOK X ***\nfooter"
	assert.Equal(t, "Body first.", New(Markers).Strip(text))
}

func TestMarkerStripper_UnterminatedMarker(t *testing.T) {
	text := "*** START OF THIS PROJECT GUTENBERG EBOOK never closed\nBody."
	assert.Equal(t, text, New(Markers).Strip(text))
}

func TestMarkerStripper_Idempotent(t *testing.T) {
	s := New(Markers)
	inputs := []string{
		"",
		"   ",
		"no markers at all",
		"*** START OF THIS PROJECT GUTENBERG EBOOK FOO ***\nReal content here.",
		"*** START OF THIS PROJECT GUTENBERG EBOOK A ***\none\n*** START OF THIS PROJECT GUTENBERG EBOOK B ***\ntwo",
		"a\n*** END OF THIS PROJECT GUTENBERG EBOOK A ***\nb\n*** END OF THIS PROJECT GUTENBERG EBOOK B ***",
		"*** START OF THIS PROJECT GUTENBERG EBOOK X ***\r\n\r\nbody\r\n*** END OF THIS PROJECT GUTENBERG EBOOK X ***",
		"*** END OF THIS PROJECT GUTENBERG EBOOK X ***\n*** START OF THIS PROJECT GUTENBERG EBOOK X ***\nbody",
		"\r\n\r\n*** START OF THIS PROJECT GUTENBERG EBOOK ***\r\n",
		"line one\r\r\nline two",
		"*** START OF THIS PROJECT GUTENBERG EBOOK X ***\r\r\r\nbody\r\r\nmore\r",
	}
	for _, in := range inputs {
		once := s.Strip(in)
		assert.Equal(t, once, s.Strip(once), "input: %q", in)
	}
}

func TestStrip_StrayCarriageReturns(t *testing.T) {
	in := "line one\r\r\nline two\r\nline three"
	assert.Equal(t, "line one\nline two\nline three", New(Markers).Strip(in))
	assert.Equal(t, "line one\nline two\nline three", New(Keywords).Strip(in))
}

func TestKeywordStripper_TruncatesThroughLastKeyword(t *testing.T) {
	lead := "Produced by Some Volunteers. Scanned with a scanner."
	margin := strings.Repeat("x", DefaultMargin-len("scanner."))
	body := "CHAPTER I. It was a dark and stormy night."
	text := lead + margin + "  \r\n" + body

	got := New(Keywords).Strip(text)
	assert.Equal(t, body, got)
}

func TestKeywordStripper_NoKeywords(t *testing.T) {
	text := "\r\n CHAPTER I.\r\nOnce upon a time. \r\n"
	assert.Equal(t, "CHAPTER I.\nOnce upon a time.", New(Keywords).Strip(text))
}

func TestKeywordStripper_OnlyScansPrefix(t *testing.T) {
	k := &KeywordStripper{Pattern: keywordRE, ScanLen: 20, Margin: 5}
	text := strings.Repeat("a", 20) + " gutenberg appears late"
	assert.Equal(t, text, k.Strip(text))
}

func TestKeywordStripper_MarginPastHeader(t *testing.T) {
	k := &KeywordStripper{Pattern: keywordRE, ScanLen: 30, Margin: 100}
	text := "HTML version" + strings.Repeat(" ", 18) + "Body continues here."
	assert.Equal(t, "Body continues here.", k.Strip(text))
}

// Keywords scattered through the body survive: the heuristic only trims the lead-in.
func TestKeywordStripper_ScatteredBoilerplateRemains(t *testing.T) {
	k := &KeywordStripper{Pattern: keywordRE, ScanLen: 40, Margin: 0}
	text := "Intro." + strings.Repeat(" ", 40) + "Mid-book Gutenberg note. More text."
	assert.Contains(t, k.Strip(text), "Gutenberg note")
}
