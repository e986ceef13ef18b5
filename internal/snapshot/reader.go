package snapshot

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/store"
)

// Reader gives random access to a finished snapshot.
type Reader struct {
	db    *sql.DB
	state State
}

// Open opens the snapshot at dir for reading.
func Open(dir string) (*Reader, error) {
	state, err := ReadState(dir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, dataFile)
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "snapshot: stat %s", path)
	}
	db, err := store.OpenSQLite(path, store.ReadOnlyPragmas...)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open data file")
	}
	return &Reader{db: db, state: *state}, nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

// State returns the snapshot metadata.
func (r *Reader) State() State {
	return r.state
}

// Count returns the number of rows.
func (r *Reader) Count() int {
	return r.state.Rows
}

// Record returns the corpus row at 0-based index i.
func (r *Reader) Record(ctx context.Context, i int) (model.Record, error) {
	if r.state.Kind != KindCorpus {
		return model.Record{}, eris.Errorf("snapshot: %s snapshot has no records", r.state.Kind)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT text, publication_year, identifier, source, title FROM rows WHERE idx = ?`, i+1)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return model.Record{}, eris.Errorf("snapshot: index %d out of range (%d rows)", i, r.state.Rows)
	}
	return rec, err
}

// Records loads every corpus row in order.
func (r *Reader) Records(ctx context.Context) ([]model.Record, error) {
	if r.state.Kind != KindCorpus {
		return nil, eris.Errorf("snapshot: %s snapshot has no records", r.state.Kind)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT text, publication_year, identifier, source, title FROM rows ORDER BY idx`)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: query records")
	}
	defer rows.Close() //nolint:errcheck

	out := make([]model.Record, 0, r.state.Rows)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "snapshot: iterate records")
}

// Chunks loads every chunk row in order.
func (r *Reader) Chunks(ctx context.Context) ([]model.Chunk, error) {
	if r.state.Kind != KindChunks {
		return nil, eris.Errorf("snapshot: %s snapshot has no chunks", r.state.Kind)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT parent_id, chunk_index, text FROM rows ORDER BY idx`)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: query chunks")
	}
	defer rows.Close() //nolint:errcheck

	out := make([]model.Chunk, 0, r.state.Rows)
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ParentID, &c.ChunkIndex, &c.Text); err != nil {
			return nil, eris.Wrap(err, "snapshot: scan chunk")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "snapshot: iterate chunks")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.Record, error) {
	var (
		rec    model.Record
		year   sql.NullInt64
		source string
	)
	if err := s.Scan(&rec.Text, &year, &rec.Identifier, &source, &rec.Title); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, eris.Wrap(err, "snapshot: scan record")
	}
	rec.Source = model.SourceName(source)
	if year.Valid {
		rec.PublicationYear = model.YearPtr(int(year.Int64))
	}
	return rec, nil
}

// ReadRecords loads a whole corpus snapshot.
func ReadRecords(ctx context.Context, dir string) ([]model.Record, error) {
	r, err := Open(dir)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck
	return r.Records(ctx)
}

// ReadChunks loads a whole chunk snapshot.
func ReadChunks(ctx context.Context, dir string) ([]model.Chunk, error) {
	r, err := Open(dir)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck
	return r.Chunks(ctx)
}
