package source

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/config"
	"github.com/sells-group/project1899/internal/fetcher"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/snapshot"
)

// Open resolves cfg.Location, unpacks a zip member when configured, and
// loads the collection into a Table. Extracted members go under tempDir.
func Open(ctx context.Context, cfg config.SourceConfig, res *fetcher.Resolver, tempDir string) (*Table, error) {
	log := zap.L().With(zap.String("component", "source"), zap.String("source", cfg.Name))
	name := model.SourceName(cfg.Name)

	path, err := res.Resolve(ctx, cfg.Location)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s: resolve", cfg.Name)
	}

	if cfg.Archive == "zip" {
		dest := filepath.Join(tempDir, "extract", cfg.Name)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, eris.Wrapf(err, "source: %s: create extract dir", cfg.Name)
		}
		path, err = fetcher.ExtractZIPMember(path, cfg.Member, dest)
		if err != nil {
			return nil, eris.Wrapf(err, "source: %s", cfg.Name)
		}
	}

	var rows []Row
	var columns []string
	switch cfg.Format {
	case "snapshot":
		rows, columns, err = loadSnapshot(ctx, path)
	case "xlsx":
		rows, columns, err = loadXLSX(ctx, path)
	default:
		rows, columns, err = loadFile(ctx, cfg, path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", cfg.Name)
	}

	log.Info("source loaded", zap.String("format", cfg.Format), zap.Int("rows", len(rows)))
	return NewTable(name, columns, rows), nil
}

func loadFile(ctx context.Context, cfg config.SourceConfig, path string) ([]Row, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open file")
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	// XML declares its own encoding in the prolog.
	if cfg.Format != "xml" {
		if r, err = fetcher.DecodeCharset(f, cfg.Encoding); err != nil {
			return nil, nil, err
		}
	}

	switch cfg.Format {
	case "jsonl":
		rows, err := collectMaps(fetcher.StreamJSONL[map[string]any](ctx, r))
		return rows, nil, err
	case "json":
		rows, err := collectMaps(fetcher.DecodeJSONArray[map[string]any](ctx, r))
		return rows, nil, err
	case "csv":
		return collectCells(fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{LazyQuotes: true}))
	case "xml":
		outCh, errCh := fetcher.StreamXMLRecords(ctx, r, cfg.XMLElement)
		var rows []Row
		for rec := range outCh {
			row := make(Row, len(rec))
			for k, v := range rec {
				row[k] = v
			}
			rows = append(rows, row)
		}
		return rows, nil, <-errCh
	default:
		return nil, nil, eris.Errorf("unsupported format %q", cfg.Format)
	}
}

func loadXLSX(ctx context.Context, path string) ([]Row, []string, error) {
	return collectCells(fetcher.StreamXLSX(ctx, path, fetcher.XLSXOptions{}))
}

func loadSnapshot(ctx context.Context, dir string) ([]Row, []string, error) {
	records, err := snapshot.ReadRecords(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]Row, len(records))
	for i, rec := range records {
		var year any
		if rec.PublicationYear != nil {
			year = *rec.PublicationYear
		}
		rows[i] = Row{
			"text":             rec.Text,
			"publication_year": year,
			"identifier":       rec.Identifier,
			"source":           string(rec.Source),
			"title":            rec.Title,
		}
	}
	return rows, []string{"text", "publication_year", "identifier", "source", "title"}, nil
}

func collectMaps(outCh <-chan map[string]any, errCh <-chan error) ([]Row, error) {
	var rows []Row
	for m := range outCh {
		rows = append(rows, Row(m))
	}
	return rows, <-errCh
}

// collectCells treats the first row as column names and zips them onto the
// rest. Cells past the header are dropped; short rows leave the remaining
// columns unset.
func collectCells(rowCh <-chan []string, errCh <-chan error) ([]Row, []string, error) {
	var header []string
	var rows []Row
	for c := range rowCh {
		if header == nil {
			header = c
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(c) {
				row[col] = c[i]
			}
		}
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, err
	}
	return rows, header, nil
}
