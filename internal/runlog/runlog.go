// Package runlog records pipeline stage runs in a SQLite ledger.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	stage        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	rows         INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	metadata     TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Result holds the outcome of a run, passed to Complete.
type Result struct {
	Rows     int64
	Metadata map[string]any
}

// Log provides read/write access to the runs table.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Log, error) {
	db, err := store.OpenSQLite(path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	if err := store.Migrate(ctx, db, schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "runlog: migrate")
	}
	return &Log{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a stage run and returns its ID.
func (l *Log) Start(ctx context.Context, stage model.Stage) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(stage), string(model.RunStatusRunning), l.now().Format(timeLayout),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start %s", stage)
	}
	return id, nil
}

// Complete marks a run as successfully completed.
func (l *Log) Complete(ctx context.Context, id string, result *Result) error {
	var rows int64
	var meta any
	if result != nil {
		rows = result.Rows
		if result.Metadata != nil {
			b, err := json.Marshal(result.Metadata)
			if err != nil {
				return eris.Wrap(err, "runlog: marshal metadata")
			}
			meta = string(b)
		}
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, rows = ?, metadata = ? WHERE id = ?`,
		string(model.RunStatusComplete), l.now().Format(timeLayout), rows, meta, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete %s", id)
	}
	return store.CheckRowsAffected(res, "run", id)
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(model.RunStatusFailed), l.now().Format(timeLayout), msg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail %s", id)
	}
	return store.CheckRowsAffected(res, "run", id)
}

// List returns runs ordered by most recent first. limit <= 0 returns all.
func (l *Log) List(ctx context.Context, limit int) ([]model.Run, error) {
	q := `SELECT id, stage, status, started_at, completed_at, rows, error, metadata
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: iterate runs")
}

// Get returns one run by id.
func (l *Log) Get(ctx context.Context, id string) (*model.Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, stage, status, started_at, completed_at, rows, error, metadata
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("runlog: run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.Run, error) {
	var (
		r                 model.Run
		stage, status     string
		started           string
		completed, errStr sql.NullString
		meta              sql.NullString
	)
	if err := s.Scan(&r.ID, &stage, &status, &started, &completed, &r.Rows, &errStr, &meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, eris.Wrap(err, "runlog: scan run")
	}
	r.Stage = model.Stage(stage)
	r.Status = model.RunStatus(status)
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return r, eris.Wrapf(err, "runlog: parse started_at for %s", r.ID)
	}
	if completed.Valid {
		t, err := time.Parse(timeLayout, completed.String)
		if err != nil {
			return r, eris.Wrapf(err, "runlog: parse completed_at for %s", r.ID)
		}
		r.CompletedAt = &t
	}
	r.Error = errStr.String
	if meta.Valid {
		_ = json.Unmarshal([]byte(meta.String), &r.Metadata)
	}
	return r, nil
}
