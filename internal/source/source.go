// Package source models an external document collection as an injectable
// capability: iterate rows, report a row count and a schema.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/project1899/internal/model"
)

// Row is one raw item keyed by column name.
type Row map[string]any

// String returns the field as text. Missing and null fields are empty.
func (r Row) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Year parses the field as a publication year. Integers, floats with no
// fractional part and trimmed numeric strings parse; anything else reports false.
func (r Row) Year(field string) (int, bool) {
	if field == "" {
		return 0, false
	}
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return floatYear(t)
	case json.Number:
		return parseYear(t.String())
	case string:
		return parseYear(t)
	default:
		return 0, false
	}
}

func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatYear(f)
}

func floatYear(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Source is a read-only collection of rows.
type Source interface {
	Name() model.SourceName
	// Schema lists the column names rows may carry.
	Schema() []string
	// Count returns the number of rows.
	Count() int
	// Rows streams every row in collection order. Both channels are closed
	// when iteration completes.
	Rows(ctx context.Context) (<-chan Row, <-chan error)
}

// Table is an in-memory Source.
type Table struct {
	name    model.SourceName
	columns []string
	rows    []Row
}

// NewTable builds a Table. When columns is nil the schema is the union of
// row keys in first-seen order, each row's keys taken alphabetically.
func NewTable(name model.SourceName, columns []string, rows []Row) *Table {
	if columns == nil {
		seen := make(map[string]bool)
		for _, r := range rows {
			for _, k := range slices.Sorted(maps.Keys(r)) {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
	}
	return &Table{name: name, columns: columns, rows: rows}
}

func (t *Table) Name() model.SourceName { return t.name }

func (t *Table) Schema() []string { return t.columns }

func (t *Table) Count() int { return len(t.rows) }

// All returns the backing rows.
func (t *Table) All() []Row { return t.rows }

func (t *Table) Rows(ctx context.Context) (<-chan Row, <-chan error) {
	outCh := make(chan Row, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(outCh)
		defer close(errCh)
		for _, r := range t.rows {
			select {
			case outCh <- r:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()
	return outCh, errCh
}

// Collect drains a Source into a slice, stopping at the first error.
func Collect(ctx context.Context, src Source) ([]Row, error) {
	rowCh, errCh := src.Rows(ctx)
	rows := make([]Row, 0, src.Count())
	for r := range rowCh {
		rows = append(rows, r)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
