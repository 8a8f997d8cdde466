// Package lz4 implements the lz4 frame stream codec.
package lz4

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/segmentio/rntuple-go/compress"
)

var magic = []byte{0x04, 0x22, 0x4d, 0x18}

// Codec writes lz4 frames with the default block size and compression level.
type Codec struct{}

func (c *Codec) String() string    { return "lz4" }
func (c *Codec) Extension() string { return ".lz4" }
func (c *Codec) Magic() []byte     { return magic }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	return &reader{r: lz4.NewReader(r)}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	return &writer{w: lz4.NewWriter(w)}, nil
}

type reader struct{ r *lz4.Reader }

func (r *reader) Read(b []byte) (int, error) { return r.r.Read(b) }
func (r *reader) Close() error               { return nil }

func (r *reader) Reset(in io.Reader) error {
	r.r.Reset(in)
	return nil
}

type writer struct{ w *lz4.Writer }

func (w *writer) Write(b []byte) (int, error) { return w.w.Write(b) }
func (w *writer) Close() error                { return w.w.Close() }

func (w *writer) Reset(out io.Writer) error {
	w.w.Reset(out)
	return nil
}
