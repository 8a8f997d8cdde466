// Package snappy implements the framed snappy stream codec. Block-format
// snappy, which has no framing, is not supported.
package snappy

import (
	"io"

	"github.com/klauspost/compress/snappy"

	"github.com/segmentio/rntuple-go/compress"
)

// The stream identifier chunk starting every framed stream.
var magic = []byte("\xff\x06\x00\x00sNaPpY")

type Codec struct{}

func (c *Codec) String() string    { return "snappy" }
func (c *Codec) Extension() string { return ".sz" }
func (c *Codec) Magic() []byte     { return magic }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	return &reader{r: snappy.NewReader(r)}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	return &writer{w: snappy.NewBufferedWriter(w)}, nil
}

type reader struct{ r *snappy.Reader }

func (r *reader) Read(b []byte) (int, error) { return r.r.Read(b) }
func (r *reader) Close() error               { return nil }

func (r *reader) Reset(in io.Reader) error {
	r.r.Reset(in)
	return nil
}

type writer struct{ w *snappy.Writer }

func (w *writer) Write(b []byte) (int, error) { return w.w.Write(b) }
func (w *writer) Close() error                { return w.w.Close() }

func (w *writer) Reset(out io.Writer) error {
	w.w.Reset(out)
	return nil
}
