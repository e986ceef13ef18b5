package dedup

import (
	"context"
	"encoding/binary"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
)

// Stats summarises a dedup run.
type Stats struct {
	Input    int `json:"input"`
	Retained int `json:"retained"`
	Removed  int `json:"removed"`
	Bands    int `json:"bands"`
	Rows     int `json:"rows"`
}

// Deduper removes near-duplicate chunks.
type Deduper struct {
	cfg    Config
	hasher *Hasher
	bands  int
	rows   int
}

// New validates cfg and builds a Deduper.
func New(cfg Config) (*Deduper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bands, rows := Bands(cfg.Threshold, cfg.NumPerm)
	return &Deduper{
		cfg:    cfg,
		hasher: NewHasher(cfg.ShingleSize, cfg.NumPerm, cfg.Seed),
		bands:  bands,
		rows:   rows,
	}, nil
}

func (d *Deduper) bandKey(sig []uint32, band int) string {
	buf := make([]byte, 4*d.rows)
	for r := range d.rows {
		binary.LittleEndian.PutUint32(buf[4*r:], sig[band*d.rows+r])
	}
	return string(buf)
}

// Dedup returns the subset of chunks in which no two members have an
// estimated similarity at or above the threshold. Chunks are visited in
// input order and the first member of a near-duplicate group survives.
// Returned chunks are the input values, unchanged.
func (d *Deduper) Dedup(ctx context.Context, chunks []model.Chunk, opts parallel.Options) ([]model.Chunk, Stats, error) {
	log := zap.L().With(zap.String("component", "dedup"))
	stats := Stats{Input: len(chunks), Bands: d.bands, Rows: d.rows}

	sigs, err := parallel.Map(ctx, chunks, opts, func(_ context.Context, c model.Chunk) ([]uint32, bool, error) {
		return d.hasher.Signature(c.Text), true, nil
	})
	if err != nil {
		return nil, stats, eris.Wrap(err, "dedup: signatures")
	}
	log.Debug("signatures computed", zap.Int("chunks", len(sigs)), zap.Int("bands", d.bands), zap.Int("rows", d.rows))

	index := make([]map[string][]int, d.bands)
	for i := range index {
		index[i] = make(map[string][]int)
	}

	kept := make([]model.Chunk, 0, len(chunks))
	keys := make([]string, d.bands)
	for i, sig := range sigs {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, eris.Wrap(err, "dedup: cluster")
			}
		}
		for b := range d.bands {
			keys[b] = d.bandKey(sig, b)
		}
		if d.matchesRetained(sigs, sig, keys, index) {
			continue
		}
		for b, k := range keys {
			index[b][k] = append(index[b][k], i)
		}
		kept = append(kept, chunks[i])
	}

	stats.Retained = len(kept)
	stats.Removed = stats.Input - stats.Retained
	log.Info("dedup complete",
		zap.Int("input", stats.Input),
		zap.Int("retained", stats.Retained),
		zap.Int("removed", stats.Removed),
	)
	return kept, stats, nil
}

func (d *Deduper) matchesRetained(sigs [][]uint32, sig []uint32, keys []string, index []map[string][]int) bool {
	checked := make(map[int]struct{})
	for b, k := range keys {
		for _, j := range index[b][k] {
			if _, ok := checked[j]; ok {
				continue
			}
			checked[j] = struct{}{}
			if Similarity(sig, sigs[j]) >= d.cfg.Threshold {
				return true
			}
		}
	}
	return false
}
