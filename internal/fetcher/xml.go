package fetcher

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// StreamXMLRecords flattens every element with the given local name into a
// field map and sends it to a channel. Attributes of the element and the
// concatenated character data of each child element (keyed by the child's
// local name) become fields; repeated children keep the first value.
func StreamXMLRecords(ctx context.Context, r io.Reader, elementName string) (<-chan map[string]string, <-chan error) {
	return produce(ctx, "xml", func(emit func(map[string]string) error) error {
		decoder := xml.NewDecoder(r)
		decoder.CharsetReader = func(cs string, in io.Reader) (io.Reader, error) {
			return DecodeCharset(in, cs)
		}

		for {
			tok, err := decoder.Token()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return eris.Wrap(err, "xml: read token")
			}

			se, ok := tok.(xml.StartElement)
			if !ok || se.Name.Local != elementName {
				continue
			}
			rec, err := flattenElement(decoder, se)
			if err != nil {
				return err
			}
			if err := emit(rec); err != nil {
				return err
			}
		}
	})
}

// flattenElement consumes tokens up to the end of start.
func flattenElement(decoder *xml.Decoder, start xml.StartElement) (map[string]string, error) {
	rec := make(map[string]string, len(start.Attr)+4)
	for _, a := range start.Attr {
		rec[a.Name.Local] = a.Value
	}

	var (
		depth int
		field string
		buf   strings.Builder
	)
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, eris.Wrapf(err, "xml: read %s element", start.Name.Local)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				field = t.Name.Local
				buf.Reset()
				for _, a := range t.Attr {
					key := field + "." + a.Name.Local
					if _, seen := rec[key]; !seen {
						rec[key] = a.Value
					}
				}
			}
		case xml.CharData:
			if depth >= 1 {
				buf.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				return rec, nil
			}
			if depth == 1 {
				if _, seen := rec[field]; !seen {
					rec[field] = strings.TrimSpace(buf.String())
				}
			}
			depth--
		}
	}
}
