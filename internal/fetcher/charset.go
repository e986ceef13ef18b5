package fetcher

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeCharset wraps r so it yields UTF-8. Names are WHATWG labels such as
// "latin1", "windows-1252" or "iso-8859-1". Empty and "utf-8" return r unchanged.
func DecodeCharset(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "charset: unsupported encoding %q", name)
	}
	return enc.NewDecoder().Reader(r), nil
}
