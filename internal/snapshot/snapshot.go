// Package snapshot persists an assembled corpus or a chunk set as a directory
// holding data.sqlite and state.json. A snapshot is written once, moved into
// place with a rename, and read by the next stage.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/store"
)

const (
	dataFile  = "data.sqlite"
	stateFile = "state.json"
)

// Kind names what a snapshot holds.
type Kind string

const (
	KindCorpus Kind = "corpus"
	KindChunks Kind = "chunks"
)

var (
	// ErrExists is returned when the target directory exists and overwrite was not requested.
	ErrExists = eris.New("snapshot: target already exists")
	// ErrNotSnapshot is returned when a directory has no state.json.
	ErrNotSnapshot = eris.New("snapshot: not a snapshot directory")
)

// Columns per kind, in table order.
var kindColumns = map[Kind][]string{
	KindCorpus: {"text", "publication_year", "identifier", "source", "title"},
	KindChunks: {"parent_id", "chunk_index", "text"},
}

const corpusSchema = `
CREATE TABLE rows (
	idx              INTEGER PRIMARY KEY,
	text             TEXT NOT NULL,
	publication_year INTEGER,
	identifier       TEXT NOT NULL,
	source           TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT ''
);`

const chunksSchema = `
CREATE TABLE rows (
	idx         INTEGER PRIMARY KEY,
	parent_id   TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	text        TEXT NOT NULL
);`

// State is the contents of state.json.
type State struct {
	Kind      Kind      `json:"kind"`
	Columns   []string  `json:"columns"`
	Rows      int       `json:"rows"`
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteOptions controls snapshot writes.
type WriteOptions struct {
	Overwrite bool
	RunID     string
}

// WriteRecords persists records as a corpus snapshot at dir.
func WriteRecords(ctx context.Context, dir string, records []model.Record, opts WriteOptions) (*State, error) {
	return write(ctx, dir, KindCorpus, len(records), opts, func(stmt *sql.Stmt) error {
		for i, r := range records {
			var year any
			if r.PublicationYear != nil {
				year = *r.PublicationYear
			}
			if _, err := stmt.ExecContext(ctx, i+1, r.Text, year, r.Identifier, string(r.Source), r.Title); err != nil {
				return eris.Wrapf(err, "snapshot: insert record %d", i)
			}
		}
		return nil
	})
}

// WriteChunks persists chunks as a chunk snapshot at dir.
func WriteChunks(ctx context.Context, dir string, chunks []model.Chunk, opts WriteOptions) (*State, error) {
	return write(ctx, dir, KindChunks, len(chunks), opts, func(stmt *sql.Stmt) error {
		for i, c := range chunks {
			if _, err := stmt.ExecContext(ctx, i+1, c.ParentID, c.ChunkIndex, c.Text); err != nil {
				return eris.Wrapf(err, "snapshot: insert chunk %d", i)
			}
		}
		return nil
	})
}

func insertSQL(kind Kind) string {
	if kind == KindChunks {
		return `INSERT INTO rows (idx, parent_id, chunk_index, text) VALUES (?, ?, ?, ?)`
	}
	return `INSERT INTO rows (idx, text, publication_year, identifier, source, title) VALUES (?, ?, ?, ?, ?, ?)`
}

func write(ctx context.Context, dir string, kind Kind, n int, opts WriteOptions, insert func(*sql.Stmt) error) (*State, error) {
	log := zap.L().With(zap.String("component", "snapshot"), zap.String("dir", dir))

	if _, err := os.Stat(dir); err == nil && !opts.Overwrite {
		return nil, eris.Wrapf(ErrExists, "snapshot: %s", dir)
	}

	parent := filepath.Dir(filepath.Clean(dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, eris.Wrap(err, "snapshot: create parent dir")
	}
	tmp := filepath.Join(parent, "."+filepath.Base(dir)+".tmp-"+uuid.NewString())
	if err := os.Mkdir(tmp, 0o755); err != nil {
		return nil, eris.Wrap(err, "snapshot: create temp dir")
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmp) //nolint:errcheck
		}
	}()

	if err := writeData(ctx, filepath.Join(tmp, dataFile), kind, insert); err != nil {
		return nil, err
	}

	state := &State{
		Kind:      kind,
		Columns:   kindColumns[kind],
		Rows:      n,
		RunID:     opts.RunID,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: marshal state")
	}
	if err := os.WriteFile(filepath.Join(tmp, stateFile), data, 0o644); err != nil {
		return nil, eris.Wrap(err, "snapshot: write state")
	}

	if err := replaceDir(tmp, dir); err != nil {
		return nil, err
	}
	committed = true

	log.Info("snapshot written", zap.String("kind", string(kind)), zap.Int("rows", n))
	return state, nil
}

func writeData(ctx context.Context, path string, kind Kind, insert func(*sql.Stmt) error) error {
	db, err := store.OpenSQLite(path, store.BulkPragmas...)
	if err != nil {
		return eris.Wrap(err, "snapshot: open data file")
	}
	defer db.Close() //nolint:errcheck

	schema := corpusSchema
	if kind == KindChunks {
		schema = chunksSchema
	}
	if err := store.Migrate(ctx, db, schema); err != nil {
		return eris.Wrap(err, "snapshot: create table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "snapshot: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL(kind))
	if err != nil {
		return eris.Wrap(err, "snapshot: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	if err := insert(stmt); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "snapshot: commit")
}

// replaceDir moves tmp to dir, swapping out any existing dir.
func replaceDir(tmp, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		old := tmp + ".old"
		if err := os.Rename(dir, old); err != nil {
			return eris.Wrap(err, "snapshot: move existing aside")
		}
		if err := os.Rename(tmp, dir); err != nil {
			os.Rename(old, dir) //nolint:errcheck
			return eris.Wrap(err, "snapshot: rename into place")
		}
		return eris.Wrap(os.RemoveAll(old), "snapshot: remove previous")
	}
	return eris.Wrap(os.Rename(tmp, dir), "snapshot: rename into place")
}

// ReadState loads state.json from dir.
func ReadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotSnapshot, "snapshot: %s", dir)
		}
		return nil, eris.Wrap(err, "snapshot: read state")
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "snapshot: parse state")
	}
	if _, ok := kindColumns[s.Kind]; !ok {
		return nil, eris.Errorf("snapshot: unknown kind %q in %s", s.Kind, dir)
	}
	return &s, nil
}
