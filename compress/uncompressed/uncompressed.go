// Package uncompressed implements the identity codec, for plain JSON
// documents.
package uncompressed

import (
	"io"

	"github.com/segmentio/rntuple-go/compress"
)

type Codec struct{}

func (c *Codec) String() string    { return "none" }
func (c *Codec) Extension() string { return "" }
func (c *Codec) Magic() []byte     { return nil }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	return &reader{r: r}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	return &writer{w: w}, nil
}

type reader struct{ r io.Reader }

func (r *reader) Read(b []byte) (int, error) { return r.r.Read(b) }
func (r *reader) Close() error               { return nil }

func (r *reader) Reset(in io.Reader) error {
	r.r = in
	return nil
}

type writer struct{ w io.Writer }

func (w *writer) Write(b []byte) (int, error) { return w.w.Write(b) }
func (w *writer) Close() error                { return nil }

func (w *writer) Reset(out io.Writer) error {
	w.w = out
	return nil
}
