// Package spotcheck is a read-only viewer over the assembled corpus and the
// anachronism rejection log.
package spotcheck

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/audit"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/snapshot"
)

// Sample size bounds and defaults.
const (
	MinSampleSize       = 5
	MaxSampleSize       = 200
	DefaultSampleSize   = 25
	DefaultRemovedLimit = 20000
	DefaultExcerptLen   = 800
)

// Options configures a Viewer.
type Options struct {
	KeptPath     string
	RemovedPath  string
	SampleSize   int
	RemovedLimit int
	ExcerptLen   int
}

func (o Options) withDefaults() Options {
	if o.SampleSize == 0 {
		o.SampleSize = DefaultSampleSize
	}
	o.SampleSize = ClampSampleSize(o.SampleSize)
	if o.RemovedLimit <= 0 {
		o.RemovedLimit = DefaultRemovedLimit
	}
	if o.ExcerptLen <= 0 {
		o.ExcerptLen = DefaultExcerptLen
	}
	return o
}

// ClampSampleSize bounds n to [MinSampleSize, MaxSampleSize].
func ClampSampleSize(n int) int {
	return min(max(n, MinSampleSize), MaxSampleSize)
}

// KeptRow is one sampled record from the kept corpus.
type KeptRow struct {
	Identifier      string `json:"identifier"`
	Title           string `json:"title,omitempty"`
	Source          string `json:"source,omitempty"`
	PublicationYear *int   `json:"publication_year"`
	Excerpt         string `json:"excerpt"`
}

// Viewer holds the kept snapshot and the loaded audit entries. It never
// writes to either.
type Viewer struct {
	opts Options
	log  *zap.Logger
	seed func() uint64

	mu       sync.RWMutex
	kept     *snapshot.Reader
	removed  []model.AuditEntry
	warnings []string
}

// New creates a Viewer and performs the initial load. Missing inputs
// become warnings rather than errors.
func New(ctx context.Context, opts Options) (*Viewer, error) {
	v := &Viewer{
		opts: opts.withDefaults(),
		log:  zap.L().With(zap.String("component", "spotcheck")),
		seed: rand.Uint64,
	}
	if err := v.Reload(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Options returns the effective options.
func (v *Viewer) Options() Options {
	return v.opts
}

// Reload re-reads the kept snapshot and the audit log.
func (v *Viewer) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "spotcheck: reload")
	}

	var warnings []string
	var kept *snapshot.Reader
	switch {
	case v.opts.KeptPath == "":
		warnings = append(warnings, "no kept corpus configured")
	default:
		r, err := snapshot.Open(v.opts.KeptPath)
		if err != nil {
			v.log.Warn("kept corpus unavailable", zap.String("path", v.opts.KeptPath), zap.Error(err))
			warnings = append(warnings, "kept corpus not found at "+v.opts.KeptPath)
		} else if r.State().Kind != snapshot.KindCorpus {
			_ = r.Close()
			warnings = append(warnings, v.opts.KeptPath+" is not a corpus snapshot")
		} else {
			kept = r
		}
	}

	var removed []model.AuditEntry
	switch {
	case v.opts.RemovedPath == "":
		warnings = append(warnings, "no rejection log configured")
	default:
		entries, err := audit.Load(v.opts.RemovedPath, v.opts.RemovedLimit)
		switch {
		case errors.Is(err, audit.ErrNotFound):
			warnings = append(warnings, "rejection log not found at "+v.opts.RemovedPath)
		case err != nil:
			v.log.Warn("rejection log unreadable", zap.String("path", v.opts.RemovedPath), zap.Error(err))
			warnings = append(warnings, "rejection log unreadable: "+err.Error())
			removed = entries
		default:
			removed = entries
		}
	}

	v.mu.Lock()
	old := v.kept
	v.kept = kept
	v.removed = removed
	v.warnings = warnings
	v.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	v.log.Info("loaded",
		zap.Int("kept", v.KeptCount()),
		zap.Int("removed", len(removed)),
		zap.Int("warnings", len(warnings)),
	)
	return nil
}

// Warnings returns the problems found by the last load.
func (v *Viewer) Warnings() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.warnings...)
}

// KeptCount is the number of rows in the kept snapshot.
func (v *Viewer) KeptCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.kept == nil {
		return 0
	}
	return v.kept.Count()
}

// RemovedCount is the number of loaded audit entries.
func (v *Viewer) RemovedCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.removed)
}

// Kept samples up to n kept records. n is clamped; zero means the configured
// sample size.
func (v *Viewer) Kept(ctx context.Context, n int) ([]KeptRow, error) {
	n = v.sampleSize(n)

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.kept == nil {
		return []KeptRow{}, nil
	}

	indices := audit.Sample(v.kept.Count(), n, v.seed())
	rows := make([]KeptRow, 0, len(indices))
	for _, i := range indices {
		rec, err := v.kept.Record(ctx, i)
		if err != nil {
			return nil, eris.Wrapf(err, "spotcheck: read kept row %d", i)
		}
		rows = append(rows, KeptRow{
			Identifier:      rec.Identifier,
			Title:           rec.Title,
			Source:          string(rec.Source),
			PublicationYear: rec.PublicationYear,
			Excerpt:         truncate(rec.Text, v.opts.ExcerptLen),
		})
	}
	return rows, nil
}

// Removed samples up to n entries from the rejection log.
func (v *Viewer) Removed(n int) []model.AuditEntry {
	n = v.sampleSize(n)

	v.mu.RLock()
	defer v.mu.RUnlock()

	indices := audit.Sample(len(v.removed), n, v.seed())
	out := make([]model.AuditEntry, 0, len(indices))
	for _, i := range indices {
		out = append(out, v.removed[i])
	}
	return out
}

// Close releases the kept snapshot.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.kept == nil {
		return nil
	}
	err := v.kept.Close()
	v.kept = nil
	return err
}

func (v *Viewer) sampleSize(n int) int {
	if n <= 0 {
		return v.opts.SampleSize
	}
	return ClampSampleSize(n)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
