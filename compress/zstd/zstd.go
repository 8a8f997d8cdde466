// Package zstd implements the zstandard stream codec.
package zstd

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/segmentio/rntuple-go/compress"
)

type Level = zstd.EncoderLevel

const (
	SpeedFastest           = zstd.SpeedFastest
	SpeedDefault           = zstd.SpeedDefault
	SpeedBetterCompression = zstd.SpeedBetterCompression
	SpeedBestCompression   = zstd.SpeedBestCompression

	DefaultLevel = SpeedDefault
	// Layout documents are small, a single goroutine decodes them fastest.
	DefaultConcurrency = 1
)

var magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Codec writes zstandard frames. Zero fields select DefaultLevel and
// DefaultConcurrency.
type Codec struct {
	Level       Level
	Concurrency int
}

func (c *Codec) String() string    { return "zstd" }
func (c *Codec) Extension() string { return ".zst" }
func (c *Codec) Magic() []byte     { return magic }

func (c *Codec) NewReader(r io.Reader) (compress.Reader, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(c.concurrency()))
	if err != nil {
		return nil, err
	}
	return &decoder{d: d}, nil
}

func (c *Codec) NewWriter(w io.Writer) (compress.Writer, error) {
	level := c.Level
	if level == 0 {
		level = DefaultLevel
	}

	e, err := zstd.NewWriter(discardNil(w),
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(c.concurrency()),
		// An empty document still carries the frame header, so that it can
		// be recognized by its magic bytes.
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, err
	}
	return &encoder{e: e}, nil
}

func (c *Codec) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return DefaultConcurrency
}

type decoder struct{ d *zstd.Decoder }

func (r *decoder) Read(b []byte) (int, error) { return r.d.Read(b) }
func (r *decoder) Reset(in io.Reader) error   { return r.d.Reset(in) }

func (r *decoder) Close() error {
	r.d.Close()
	return nil
}

type encoder struct{ e *zstd.Encoder }

func (w *encoder) Write(b []byte) (int, error) { return w.e.Write(b) }
func (w *encoder) Close() error                { return w.e.Close() }

func (w *encoder) Reset(out io.Writer) error {
	w.e.Reset(discardNil(out))
	return nil
}

func discardNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
