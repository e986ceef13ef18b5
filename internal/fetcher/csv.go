package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StreamCSV sends every CSV record, header included, to a channel. A leading
// UTF-8 BOM is dropped so the first column name matches its field. Rows may
// have differing lengths.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	return produce(ctx, "csv", func(emit func([]string) error) error {
		br := bufio.NewReader(r)
		if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = br.Discard(len(utf8BOM))
		}

		cr := csv.NewReader(br)
		if opts.Delimiter != 0 {
			cr.Comma = opts.Delimiter
		}
		cr.LazyQuotes = opts.LazyQuotes
		cr.FieldsPerRecord = -1

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return eris.Wrap(err, "csv: read row")
			}
			if err := emit(rec); err != nil {
				return err
			}
		}
	})
}
