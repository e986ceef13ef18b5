package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/project1899/internal/boilerplate"
	"github.com/sells-group/project1899/internal/config"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
	"github.com/sells-group/project1899/internal/source"
)

func gutenbergInput(rows []source.Row) Input {
	return Input{
		Source:     source.NewTable("pg19", nil, rows),
		TextField:  "text",
		YearField:  "publication_date",
		IDField:    "url",
		TitleField: "short_book_title",
		Stripper:   boilerplate.New(boilerplate.Markers),
		YearPolicy: Lenient,
	}
}

func TestClassify_MetadataFilter(t *testing.T) {
	in := gutenbergInput(nil)

	o := in.Classify(source.Row{"text": "old", "publication_date": 1899}, 0, 1900)
	assert.Equal(t, Kept, o.Verdict)
	assert.Equal(t, 1899, o.Record.Year())

	o = in.Classify(source.Row{"text": "new", "publication_date": 1900}, 0, 1900)
	assert.Equal(t, DroppedYear, o.Verdict)
}

func TestClassify_YearPolicy(t *testing.T) {
	in := gutenbergInput(nil)
	row := source.Row{"text": "undated", "publication_date": "unknown"}

	o := in.Classify(row, 3, 1900)
	assert.Equal(t, Kept, o.Verdict)
	assert.True(t, o.YearUnparsed)
	assert.False(t, o.Record.HasYear())

	in.YearPolicy = Strict
	o = in.Classify(row, 3, 1900)
	assert.Equal(t, DroppedYear, o.Verdict)
	assert.True(t, o.YearUnparsed)
}

func TestClassify_RegexOverridesMetadata(t *testing.T) {
	in := gutenbergInput(nil)
	o := in.Classify(source.Row{"text": "An early computer of brass", "publication_date": 1850}, 0, 1900)
	assert.Equal(t, Rejected, o.Verdict)
	assert.Equal(t, 1850, o.Record.Year())
}

func TestClassify_StripsAndNormalizes(t *testing.T) {
	in := gutenbergInput(nil)
	row := source.Row{
		"text":             "*** START OF THIS PROJECT GUTENBERG EBOOK FOO ***\r\nReal content here.",
		"publication_date": json.Number("1801"),
		"url":              "http://gutenberg/1",
		"short_book_title": "Foo",
	}
	o := in.Classify(row, 0, 1900)
	require.Equal(t, Kept, o.Verdict)
	assert.Equal(t, model.Record{
		Text:            "Real content here.",
		PublicationYear: model.YearPtr(1801),
		Identifier:      "http://gutenberg/1",
		Source:          "pg19",
		Title:           "Foo",
	}, o.Record)
}

func TestClassify_FallbackIdentifier(t *testing.T) {
	in := Input{Source: source.NewTable("blbooks", nil, nil), TextField: "text"}
	o := in.Classify(source.Row{"text": "x"}, 7, 1900)
	assert.Equal(t, "blbooks:7", o.Record.Identifier)
	assert.False(t, o.YearUnparsed, "sources without a year field are trusted")
}

func testInputs() []Input {
	var pg []source.Row
	for i := range 40 {
		pg = append(pg, source.Row{"text": fmt.Sprintf("novel %d", i), "publication_date": 1800 + i*5, "url": fmt.Sprintf("pg:%d", i)})
	}
	pg = append(pg, source.Row{"text": "the television set", "publication_date": 1850, "url": "pg:tv"})

	var bl []source.Row
	for i := range 10 {
		bl = append(bl, source.Row{"text": fmt.Sprintf("pamphlet %d", i)})
	}

	return []Input{
		gutenbergInput(pg),
		{Source: source.NewTable("blbooks", nil, bl), TextField: "text"},
	}
}

func TestAssemble_CountsAndFilters(t *testing.T) {
	res, err := Assemble(context.Background(), testInputs(), Options{Seed: 42, Parallel: parallel.Options{Workers: 3, ShardSize: 4}})
	require.NoError(t, err)

	require.Len(t, res.Counts, 2)
	pg := res.Counts[0]
	assert.Equal(t, model.SourceName("pg19"), pg.Source)
	assert.Equal(t, 41, pg.PreFilter)
	assert.Equal(t, 21, pg.PostMetadata) // years 1800..1895 plus the 1850 television row
	assert.Equal(t, 20, pg.PostRegex)
	assert.Equal(t, 1, pg.RegexRejected)
	assert.Equal(t, model.StageCounts{Source: "blbooks", PreFilter: 10, PostMetadata: 10, PostRegex: 10}, res.Counts[1])

	assert.Len(t, res.Records, 30)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "pg:tv", res.Rejected[0].Identifier)
	for _, r := range res.Records {
		if r.HasYear() {
			assert.Less(t, r.Year(), 1900)
		}
	}
}

func TestAssemble_DeterministicShuffle(t *testing.T) {
	opts := Options{Seed: 42, Parallel: parallel.Options{Workers: 4, ShardSize: 3}}
	a, err := Assemble(context.Background(), testInputs(), opts)
	require.NoError(t, err)
	b, err := Assemble(context.Background(), testInputs(), Options{Seed: 42, Parallel: parallel.Options{Workers: 1, ShardSize: 100}})
	require.NoError(t, err)

	ja, _ := json.Marshal(a.Records)
	jb, _ := json.Marshal(b.Records)
	assert.Equal(t, string(ja), string(jb))

	c, err := Assemble(context.Background(), testInputs(), Options{Seed: 7, Parallel: opts.Parallel})
	require.NoError(t, err)
	jc, _ := json.Marshal(c.Records)
	assert.NotEqual(t, string(ja), string(jc))
}

func TestAssemble_EmptySources(t *testing.T) {
	res, err := Assemble(context.Background(), []Input{
		{Source: source.NewTable("empty", nil, nil), TextField: "text"},
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Counts[0].PreFilter)
}

func TestAssemble_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Assemble(ctx, testInputs(), Options{})
	assert.Error(t, err)
}

func TestInputFromConfig(t *testing.T) {
	src := source.NewTable("pg19", nil, nil)
	in, err := InputFromConfig(src, config.SourceConfig{Name: "pg19", YearField: "publication_date", Boilerplate: "keywords", YearPolicy: "strict"})
	require.NoError(t, err)
	assert.Equal(t, "text", in.TextField)
	assert.Equal(t, Strict, in.YearPolicy)
	assert.IsType(t, &boilerplate.KeywordStripper{}, in.Stripper)

	_, err = InputFromConfig(src, config.SourceConfig{Boilerplate: "regex"})
	assert.Error(t, err)
	_, err = InputFromConfig(src, config.SourceConfig{YearPolicy: "sometimes"})
	assert.Error(t, err)
}

func TestShuffle_SameSeedSameOrder(t *testing.T) {
	mk := func() []model.Record {
		out := make([]model.Record, 20)
		for i := range out {
			out[i].Identifier = fmt.Sprint(i)
		}
		return out
	}
	a, b := mk(), mk()
	Shuffle(a, 42)
	Shuffle(b, 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, mk(), a)
}
