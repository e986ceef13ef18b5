// Package chunk splits documents into overlapping fixed-size word windows
// and explodes records into flat chunk rows that keep their provenance.
package chunk

import (
	"context"
	"iter"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
)

const (
	// DefaultSize is the default window width in words.
	DefaultSize = 1024
	// DefaultOverlap is the default number of words shared by consecutive windows.
	DefaultOverlap = 128
	// MinStep floors the distance between window starts.
	MinStep = 32
)

// Step returns the distance in words between consecutive window starts.
func Step(size, overlap int) int {
	return max(MinStep, size-overlap)
}

// Width returns the number of words in every window but the last. It is
// size, widened to the step when size falls below the step floor.
func Width(size, overlap int) int {
	return max(size, Step(size, overlap))
}

// Chunk lazily yields word windows of text. Window i starts at word i*step.
// Words are re-joined with single spaces. Iteration stops at the window
// that reaches the last word, so an empty text yields nothing.
//
// When size is below the step floor the window is widened to the step so
// that no word falls between two windows.
func Chunk(text string, size, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if size <= 0 {
			return
		}
		words := strings.Fields(text)
		step := Step(size, overlap)
		width := Width(size, overlap)
		for start := 0; start < len(words); start += step {
			end := min(start+width, len(words))
			if !yield(strings.Join(words[start:end], " ")) {
				return
			}
			if end == len(words) {
				return
			}
		}
	}
}

// Count returns the number of windows Chunk yields for a text of w words.
func Count(w, size, overlap int) int {
	if w <= 0 || size <= 0 {
		return 0
	}
	step := Step(size, overlap)
	width := Width(size, overlap)
	rest := max(w-width, 0)
	return (rest+step-1)/step + 1
}

// WordCount returns the number of whitespace-delimited words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Records flattens a record into chunk rows with 0-based sequential indices.
func Records(rec model.Record, size, overlap int) []model.Chunk {
	var out []model.Chunk
	idx := 0
	for text := range Chunk(rec.Text, size, overlap) {
		out = append(out, model.Chunk{ParentID: rec.Identifier, ChunkIndex: idx, Text: text})
		idx++
	}
	return out
}

// Explode chunks every record on the worker pool and concatenates the rows
// in record order.
func Explode(ctx context.Context, records []model.Record, size, overlap int, opts parallel.Options) ([]model.Chunk, error) {
	if size <= 0 {
		return nil, eris.Errorf("chunk: size must be positive, got %d", size)
	}
	perRecord, err := parallel.Map(ctx, records, opts, func(_ context.Context, rec model.Record) ([]model.Chunk, bool, error) {
		return Records(rec, size, overlap), true, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "chunk: explode")
	}

	total := 0
	for _, cs := range perRecord {
		total += len(cs)
	}
	out := make([]model.Chunk, 0, total)
	for _, cs := range perRecord {
		out = append(out, cs...)
	}
	return out, nil
}
