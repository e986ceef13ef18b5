package chunk

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
)

func words(n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(ws, " ")
}

func TestStep(t *testing.T) {
	assert.Equal(t, 896, Step(1024, 128))
	assert.Equal(t, 32, Step(3, 1))
	assert.Equal(t, 32, Step(100, 100))
	assert.Equal(t, 32, Step(100, 500))
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, slices.Collect(Chunk("", 1024, 128)))
	assert.Empty(t, slices.Collect(Chunk(" \n\t ", 1024, 128)))
	assert.Empty(t, slices.Collect(Chunk("a b c", 0, 0)))
}

func TestChunk_SmallSizeSingleWindow(t *testing.T) {
	got := slices.Collect(Chunk("A B C D E F", 3, 1))
	assert.Equal(t, []string{"A B C D E F"}, got)
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 1024, Width(1024, 128))
	assert.Equal(t, 40, Width(40, 8))
	assert.Equal(t, 32, Width(3, 1))
	assert.Equal(t, 32, Width(10, 0))
}

func TestChunk_SizeBelowFloorUsesStepWidth(t *testing.T) {
	all := strings.Fields(words(100))
	got := slices.Collect(Chunk(words(100), 3, 1))
	require.Len(t, got, 4)
	assert.Equal(t, Count(100, 3, 1), len(got))
	for i, c := range got[:3] {
		assert.Equal(t, all[i*32:(i+1)*32], strings.Fields(c), "chunk %d", i)
	}
	assert.Equal(t, all[96:], strings.Fields(got[3]))
}

func TestChunk_NormalizesWhitespace(t *testing.T) {
	got := slices.Collect(Chunk("  one\ttwo\n\nthree  ", 1024, 128))
	assert.Equal(t, []string{"one two three"}, got)
}

func TestChunk_Windows(t *testing.T) {
	got := slices.Collect(Chunk(words(100), 40, 8))
	require.Len(t, got, 3)
	assert.Equal(t, strings.Fields(words(100))[0:40], strings.Fields(got[0]))
	assert.Equal(t, strings.Fields(words(100))[32:72], strings.Fields(got[1]))
	assert.Equal(t, strings.Fields(words(100))[64:100], strings.Fields(got[2]))
}

func TestChunk_CountFormula(t *testing.T) {
	for _, w := range []int{0, 1, 31, 895, 896, 1000, 1023, 1024, 1025, 1920, 1921, 2000, 5000, 10_000} {
		got := slices.Collect(Chunk(words(w), 1024, 128))

		want := 0
		if w > 0 {
			want = (max(w-1024, 0)+895)/896 + 1
		}
		assert.Equal(t, want, len(got), "words: %d", w)
		assert.Equal(t, want, Count(w, 1024, 128), "words: %d", w)

		for _, c := range got[:max(len(got)-1, 0)] {
			assert.Equal(t, 1024, WordCount(c))
		}
	}
}

func TestChunk_EveryWordCovered(t *testing.T) {
	for _, tc := range []struct{ w, size, overlap int }{
		{5000, 1024, 128},
		{777, 100, 10},
		{90, 10, 5},
		{64, 3, 1},
	} {
		covered := make(map[string]bool)
		for c := range Chunk(words(tc.w), tc.size, tc.overlap) {
			for _, word := range strings.Fields(c) {
				covered[word] = true
			}
		}
		assert.Len(t, covered, tc.w, "case %+v", tc)
	}
}

func TestChunk_EarlyStop(t *testing.T) {
	n := 0
	for range Chunk(words(10_000), 100, 0) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRecords_Provenance(t *testing.T) {
	rec := model.Record{Identifier: "pg-2701", Text: words(100)}
	cs := Records(rec, 40, 8)
	require.Len(t, cs, 3)
	for i, c := range cs {
		assert.Equal(t, "pg-2701", c.ParentID)
		assert.Equal(t, i, c.ChunkIndex)
	}
}

func TestExplode(t *testing.T) {
	records := []model.Record{
		{Identifier: "a", Text: words(100)},
		{Identifier: "b", Text: ""},
		{Identifier: "c", Text: "short text"},
	}
	cs, err := Explode(context.Background(), records, 40, 8, parallel.Options{Workers: 2, ShardSize: 1})
	require.NoError(t, err)
	require.Len(t, cs, 4)
	assert.Equal(t, "a", cs[0].ParentID)
	assert.Equal(t, 2, cs[2].ChunkIndex)
	assert.Equal(t, model.Chunk{ParentID: "c", ChunkIndex: 0, Text: "short text"}, cs[3])
}

func TestExplode_InvalidSize(t *testing.T) {
	_, err := Explode(context.Background(), nil, 0, 0, parallel.Options{})
	assert.Error(t, err)
}
