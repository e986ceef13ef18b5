package anachronism

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsModern_Terms(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"The television was invented in the 20th century.", true},
		{"a theory of General Relativity", true},
		{"special relativity", true},
		{"quantum mechanics and QUANTUM THEORY", true},
		{"an airplane overhead", true},
		{"the jet engine roared", true},
		{"a Laser pointer", true},
		{"my smartphone", true},
		{"the human computer tallied the figures", true},
		{"relativity alone", false},
		{"a quantum of solace", false},
		{"computers", false},
		{"lasers", false},
		{"The whale breached beside the Pequod.", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsModern(tt.text), "text: %q", tt.text)
	}
}

func TestIsModern_InternetAnyCase(t *testing.T) {
	for _, w := range []string{"internet", "Internet", "INTERNET", "iNtErNeT"} {
		for _, tmpl := range []string{"%s", "the %s is here", "(%s)", "via %s."} {
			text := strings.ReplaceAll(tmpl, "%s", w)
			assert.True(t, IsModern(text), "text: %q", text)
		}
	}
}

func TestIsModern_PeriodVocabulary(t *testing.T) {
	vocab := []string{"whale", "carriage", "telegraph", "steam", "engine", "parliament",
		"harvest", "lamp", "gaslight", "quantum", "theory", "general", "jet", "air", "plane"}
	// deterministic combinations of the vocabulary, including pairs that
	// only become modern when adjacent in the wrong order
	for i := range vocab {
		for j := range vocab {
			text := vocab[i] + " " + vocab[j] + " " + vocab[(i+j)%len(vocab)]
			if strings.Contains(text, "quantum theory") || strings.Contains(text, "jet engine") {
				continue
			}
			assert.False(t, IsModern(text), "text: %q", text)
		}
	}
}

func TestFind(t *testing.T) {
	m, ok := Find("The television was invented in the 20th century.")
	require.True(t, ok)
	assert.Equal(t, "television", m.Term)
	assert.Equal(t, 4, m.Start)
	assert.Equal(t, 14, m.End)

	_, ok = Find("nothing modern")
	assert.False(t, ok)
}

func TestExtractSnippet_Centered(t *testing.T) {
	text := strings.Repeat("a", 100) + " laser " + strings.Repeat("b", 100)
	m, ok := Find(text)
	require.True(t, ok)
	assert.Equal(t, 101, m.Start)

	offset, snippet := ExtractSnippet(text, m, 50)
	assert.Equal(t, 101, offset)
	assert.Len(t, snippet, 50)
	// midpoint of "laser" is the "s" at byte 103
	assert.Equal(t, strings.Repeat("a", 22)+" laser "+strings.Repeat("b", 21), snippet)
}

func TestExtractSnippet_ClippedToBounds(t *testing.T) {
	text := "laser beams"
	m, ok := Find(text)
	require.True(t, ok)

	offset, snippet := ExtractSnippet(text, m, 50)
	assert.Equal(t, 0, offset)
	assert.Equal(t, "laser beams", snippet)
}

func TestExtractSnippet_RuneOffsets(t *testing.T) {
	text := "émigré café computer"
	m, ok := Find(text)
	require.True(t, ok)

	offset, snippet := ExtractSnippet(text, m, 12)
	assert.Equal(t, 12, offset)
	assert.Equal(t, "é computer", snippet)
}

func TestHighlight(t *testing.T) {
	out := Highlight("a Computer and a laser", nil, func(term string) string { return "[" + term + "]" })
	assert.Equal(t, "a [Computer] and a [laser]", out)
}

func TestHighlight_PlainSegments(t *testing.T) {
	out := Highlight("x<laser>y", strings.ToUpper, func(term string) string { return "{" + term + "}" })
	assert.Equal(t, "X<{laser}>Y", out)

	assert.Equal(t, "NO MATCH", Highlight("no match", strings.ToUpper, strings.ToLower))
}

func TestHead(t *testing.T) {
	assert.Equal(t, "éa", Head("éabc", 2))
	assert.Equal(t, "ab", Head("ab", 10))
}
