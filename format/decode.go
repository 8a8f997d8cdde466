package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
)

var (
	ErrMissingFileSize = errors.New("file description is missing the file size")
)

// Decode reads a JSON file description from r.
//
// The function only checks that the document is well formed; consistency of
// the schema and page lists is verified when building the index.
func Decode(r io.Reader) (*File, error) {
	f := new(File)
	d := json.NewDecoder(r)
	d.DisallowUnknownFields()

	if err := d.Decode(f); err != nil {
		return nil, fmt.Errorf("decoding file description: %w", err)
	}
	if f.Size <= 0 {
		return nil, ErrMissingFileSize
	}
	return f, nil
}

// Encode writes f to w as a JSON document.
func Encode(w io.Writer, f *File) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(f)
}
