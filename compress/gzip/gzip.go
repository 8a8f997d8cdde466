// Package gzip implements the gzip stream codec, which is the default codec
// of layout documents.
package gzip

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/segmentio/rntuple-go/compress"
)

const (
	BestSpeed       = gzip.BestSpeed
	BestCompression = gzip.BestCompression
	DefaultLevel    = gzip.DefaultCompression
)

var magic = []byte{0x1f, 0x8b}

// Codec writes gzip members at a configurable level; the zero value uses
// DefaultLevel.
type Codec struct {
	Level int
}

func (c *Codec) String() string    { return "gzip" }
func (c *Codec) Extension() string { return ".gz" }
func (c *Codec) Magic() []byte     { return magic }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	z, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &reader{z: z}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	level := c.Level
	if level == 0 {
		level = DefaultLevel
	}
	z, err := gzip.NewWriterLevel(discardNil(w), level)
	if err != nil {
		return nil, err
	}
	return &writer{z: z}, nil
}

type reader struct{ z *gzip.Reader }

func (r *reader) Read(b []byte) (int, error) { return r.z.Read(b) }
func (r *reader) Close() error               { return r.z.Close() }

// Reset with a nil input only detaches the reader, gzip.Reader.Reset would
// fail reading the header of an empty stream.
func (r *reader) Reset(in io.Reader) error {
	if in == nil {
		return nil
	}
	return r.z.Reset(in)
}

type writer struct{ z *gzip.Writer }

func (w *writer) Write(b []byte) (int, error) { return w.z.Write(b) }
func (w *writer) Close() error                { return w.z.Close() }

func (w *writer) Reset(out io.Writer) error {
	w.z.Reset(discardNil(out))
	return nil
}

func discardNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
