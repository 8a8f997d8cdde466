// Package brotli implements the brotli stream codec. Brotli streams have no
// signature, documents are only recognized by their extension.
package brotli

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/segmentio/rntuple-go/compress"
)

const (
	BestSpeed       = brotli.BestSpeed
	BestCompression = brotli.BestCompression

	DefaultQuality = brotli.DefaultCompression
	// Zero lets the encoder size the window from the quality.
	DefaultLGWin = 0
)

// Codec writes brotli streams. Quality ranges from 0 to 11 and LGWin, the
// log2 of the window size, from 10 to 24.
type Codec struct {
	Quality int
	LGWin   int
}

func (c *Codec) String() string    { return "brotli" }
func (c *Codec) Extension() string { return ".br" }
func (c *Codec) Magic() []byte     { return nil }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	return &reader{r: brotli.NewReader(r)}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	return &writer{w: brotli.NewWriterOptions(w, brotli.WriterOptions{
		Quality: c.Quality,
		LGWin:   c.LGWin,
	})}, nil
}

type reader struct{ r *brotli.Reader }

func (r *reader) Read(b []byte) (int, error) { return r.r.Read(b) }
func (r *reader) Reset(in io.Reader) error   { return r.r.Reset(in) }
func (r *reader) Close() error               { return nil }

type writer struct{ w *brotli.Writer }

func (w *writer) Write(b []byte) (int, error) { return w.w.Write(b) }
func (w *writer) Close() error                { return w.w.Close() }

func (w *writer) Reset(out io.Writer) error {
	w.w.Reset(out)
	return nil
}
