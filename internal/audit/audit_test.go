package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/project1899/internal/model"
)

func TestSample_Reproducible(t *testing.T) {
	a := Sample(1000, 100, 42)
	b := Sample(1000, 100, 42)
	require.Len(t, a, 100)
	assert.Equal(t, a, b)

	seen := make(map[int]bool, len(a))
	for _, i := range a {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 1000)
		assert.False(t, seen[i], "duplicate index %d", i)
		seen[i] = true
	}
}

func TestSample_DifferentSeeds(t *testing.T) {
	assert.NotEqual(t, Sample(1000, 100, 42), Sample(1000, 100, 7))
}

func TestSample_SmallPopulation(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Sample(3, 100, 42))
	assert.Nil(t, Sample(0, 100, 42))
	assert.Nil(t, Sample(10, 0, 42))
}

func TestBuildSamples(t *testing.T) {
	rejected := []model.Record{
		{Identifier: "a", Title: "Radio Days", PublicationYear: model.YearPtr(1899), Text: "strange tales of television sets"},
		{Identifier: "b", Title: "Plain", Text: "nothing to see"},
	}
	samples := BuildSamples(rejected, 100, 42, 50)
	require.Len(t, samples, 2)

	require.NotNil(t, samples[0].MatchedTerm)
	assert.Equal(t, "television", *samples[0].MatchedTerm)
	assert.Equal(t, 17, samples[0].MatchOffset)
	assert.Equal(t, "strange tales of television sets", samples[0].Snippet)

	assert.Nil(t, samples[1].MatchedTerm)
	assert.Equal(t, "nothing to see", samples[1].Snippet)
}

func TestEntry_OffsetPrefix(t *testing.T) {
	term := "laser"
	e := Entry(model.RejectionSample{Title: "T", MatchedTerm: &term, MatchOffset: 123, Snippet: "a laser"})
	assert.Equal(t, "123:a laser", e.Snippet)
	assert.Equal(t, "T", e.ShortBookTitle)

	e = Entry(model.RejectionSample{Snippet: "head"})
	assert.Equal(t, "head", e.Snippet)
	assert.Nil(t, e.Match)
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "samples.jsonl")
	term := "computer"
	samples := []model.RejectionSample{
		{Title: "Babbage <notes>", PublicationYear: model.YearPtr(1864), MatchedTerm: &term, MatchOffset: 4, Snippet: "the computer"},
		{Title: "Unknown", Snippet: "head only"},
	}
	require.NoError(t, Write(path, samples))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Babbage <notes>")
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	entries, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "4:the computer", entries[0].Snippet)
	require.NotNil(t, entries[0].PublicationDate)
	assert.Equal(t, 1864, *entries[0].PublicationDate)
	assert.Nil(t, entries[1].Match)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")
	content := `{"publication_date":1850,"short_book_title":"A","match":"laser","snippet":"1:x"}
not json at all
{"publication_date":null,"short_book_title":"B","match":null,"snippet":"y"}
{"broken":
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].ShortBookTitle)
	assert.Equal(t, "B", entries[1].ShortBookTitle)
}

func TestLoad_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")
	content := strings.Repeat(`{"short_book_title":"A","snippet":"x"}`+"\n", 10)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := Load(path, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"), 0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}
