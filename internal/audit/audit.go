// Package audit samples records rejected by the anachronism filter and
// persists them as newline-delimited JSON for manual review.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/anachronism"
	"github.com/sells-group/project1899/internal/model"
)

// DefaultSampleSize caps the number of rejections written per run.
const DefaultSampleSize = 100

// ErrNotFound is returned by Load when the log file does not exist.
var ErrNotFound = eris.New("audit: log not found")

// Sample returns k distinct indices from [0, n) drawn with a PCG source
// seeded by seed. When k >= n every index is returned in order.
func Sample(n, k int, seed uint64) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if k >= n {
		return idx
	}
	r := rand.New(rand.NewPCG(seed, seed))
	for i := range k {
		j := i + r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// BuildSamples draws up to size records from rejected and extracts the
// matched term and snippet from each.
func BuildSamples(rejected []model.Record, size int, seed uint64, snippetLen int) []model.RejectionSample {
	indices := Sample(len(rejected), size, seed)
	out := make([]model.RejectionSample, 0, len(indices))
	for _, i := range indices {
		rec := rejected[i]
		s := model.RejectionSample{
			Identifier:      rec.Identifier,
			PublicationYear: rec.PublicationYear,
			Title:           rec.Title,
		}
		if m, ok := anachronism.Find(rec.Text); ok {
			term := m.Term
			s.MatchedTerm = &term
			s.MatchOffset, s.Snippet = anachronism.ExtractSnippet(rec.Text, m, snippetLen)
		} else {
			s.Snippet = anachronism.Head(rec.Text, snippetLen)
		}
		out = append(out, s)
	}
	return out
}

// Entry converts a sample into its log form. Matched snippets are prefixed
// with the character offset of the match.
func Entry(s model.RejectionSample) model.AuditEntry {
	e := model.AuditEntry{
		PublicationDate: s.PublicationYear,
		ShortBookTitle:  s.Title,
		Match:           s.MatchedTerm,
		Snippet:         s.Snippet,
	}
	if s.MatchedTerm != nil {
		e.Snippet = strconv.Itoa(s.MatchOffset) + ":" + s.Snippet
	}
	return e
}

// Write persists samples to path, one JSON object per line. The file is
// written to a temp sibling and renamed into place.
func Write(path string, samples []model.RejectionSample) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "audit: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".audit-*.jsonl")
	if err != nil {
		return eris.Wrap(err, "audit: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, s := range samples {
		if err := enc.Encode(Entry(s)); err != nil {
			tmp.Close() //nolint:errcheck
			return eris.Wrap(err, "audit: encode entry")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "audit: flush")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "audit: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "audit: rename to %s", path)
	}
	return nil
}

// Load reads up to limit lines from an audit log. Malformed lines are
// skipped. A missing file returns ErrNotFound.
func Load(path string, limit int) ([]model.AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "audit: %s", path)
		}
		return nil, eris.Wrapf(err, "audit: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var entries []model.AuditEntry
	skipped := 0
	for i := 0; sc.Scan(); i++ {
		if limit > 0 && i >= limit {
			break
		}
		var e model.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, eris.Wrapf(err, "audit: read %s", path)
	}
	if skipped > 0 {
		zap.L().Debug("audit: skipped malformed lines", zap.String("path", path), zap.Int("skipped", skipped))
	}
	return entries, nil
}
