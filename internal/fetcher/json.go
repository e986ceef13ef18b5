package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

func newJSONDecoder(r io.Reader) *json.Decoder {
	d := json.NewDecoder(r)
	// Keep integers exact; Row.Year accepts json.Number.
	d.UseNumber()
	return d
}

// StreamJSONL decodes whitespace-separated JSON values (one per line in
// practice) and sends each to a channel. Blank lines are ignored.
func StreamJSONL[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	return produce(ctx, "jsonl", func(emit func(T) error) error {
		d := newJSONDecoder(r)
		for n := 1; ; n++ {
			var v T
			err := d.Decode(&v)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return eris.Wrapf(err, "jsonl: decode record %d", n)
			}
			if err := emit(v); err != nil {
				return err
			}
		}
	})
}

// DecodeJSONArray streams the elements of a top-level JSON array. Empty input
// yields nothing.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	return produce(ctx, "json", func(emit func(T) error) error {
		d := newJSONDecoder(r)

		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "json: read opening token")
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return eris.Errorf("json: expected '[', got %v", tok)
		}

		for i := 0; d.More(); i++ {
			var v T
			if err := d.Decode(&v); err != nil {
				return eris.Wrapf(err, "json: decode element %d", i)
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		if _, err := d.Token(); err != nil {
			return eris.Wrap(err, "json: read closing token")
		}
		return nil
	})
}
