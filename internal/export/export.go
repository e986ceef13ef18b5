// Package export loads a deduplicated chunk set into Postgres.
package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/db"
	"github.com/sells-group/project1899/internal/model"
)

// Mode selects how existing rows are treated.
type Mode string

const (
	// Replace truncates the table and COPYs every chunk.
	Replace Mode = "replace"
	// Upsert merges chunks on (parent_id, chunk_index).
	Upsert Mode = "upsert"
)

// DefaultBatchSize is the number of chunks sent per COPY or upsert.
const DefaultBatchSize = 5000

var columns = []string{"parent_id", "chunk_index", "text"}

// Options configures Export.
type Options struct {
	Schema    string
	Table     string
	Mode      Mode
	BatchSize int
}

func (o Options) qualified() string {
	return o.Schema + "." + o.Table
}

// Exporter writes chunks through a db.Pool.
type Exporter struct {
	pool db.Pool
	opts Options
}

// New validates opts and returns an Exporter.
func New(pool db.Pool, opts Options) (*Exporter, error) {
	if opts.Schema == "" || opts.Table == "" {
		return nil, eris.New("export: schema and table are required")
	}
	switch opts.Mode {
	case "":
		opts.Mode = Replace
	case Replace, Upsert:
	default:
		return nil, eris.Errorf("export: unknown mode %q (valid: replace, upsert)", opts.Mode)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Exporter{pool: pool, opts: opts}, nil
}

// EnsureTable creates the schema and chunk table if absent.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	schema := pgx.Identifier{e.opts.Schema}.Sanitize()
	table := pgx.Identifier{e.opts.Schema, e.opts.Table}.Sanitize()

	if _, err := e.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return eris.Wrapf(err, "export: create schema %s", e.opts.Schema)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	parent_id   TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	text        TEXT NOT NULL,
	PRIMARY KEY (parent_id, chunk_index)
)`, table)
	if _, err := e.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "export: create table %s", e.opts.qualified())
	}
	return nil
}

// Export ensures the table exists and writes chunks in batches. It returns the
// number of rows written.
func (e *Exporter) Export(ctx context.Context, chunks []model.Chunk) (int64, error) {
	log := zap.L().With(zap.String("component", "export"), zap.String("table", e.opts.qualified()))

	if err := e.EnsureTable(ctx); err != nil {
		return 0, err
	}

	if e.opts.Mode == Replace {
		table := pgx.Identifier{e.opts.Schema, e.opts.Table}.Sanitize()
		if _, err := e.pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			return 0, eris.Wrapf(err, "export: truncate %s", e.opts.qualified())
		}
	}

	var total int64
	for lo := 0; lo < len(chunks); lo += e.opts.BatchSize {
		hi := min(lo+e.opts.BatchSize, len(chunks))
		rows := make([][]any, 0, hi-lo)
		for _, c := range chunks[lo:hi] {
			rows = append(rows, []any{c.ParentID, int32(c.ChunkIndex), c.Text})
		}

		var (
			n   int64
			err error
		)
		if e.opts.Mode == Upsert {
			n, err = db.BulkUpsert(ctx, e.pool, db.UpsertConfig{
				Table:        e.opts.qualified(),
				Columns:      columns,
				ConflictKeys: []string{"parent_id", "chunk_index"},
			}, rows)
		} else {
			n, err = db.CopyFrom(ctx, e.pool, e.opts.qualified(), columns, rows)
		}
		if err != nil {
			return total, eris.Wrapf(err, "export: batch at %d", lo)
		}
		total += n
		log.Debug("batch written", zap.Int("offset", lo), zap.Int64("rows", n))
	}

	log.Info("export complete", zap.String("mode", string(e.opts.Mode)), zap.Int64("rows", total))
	return total, nil
}
