// Package compress defines the stream codecs of the description and profile
// documents read and written by the module. The codecs live in sub-packages,
// one per compression format.
package compress

import (
	"bytes"
	"io"
)

// Codec is a stream compression format.
//
// Codec values must be safe to use concurrently from multiple goroutines, each
// call to NewReader or NewWriter returns an independent stream.
type Codec interface {
	// Name of the codec, as accepted on the command line.
	String() string

	// File name extension of documents compressed with the codec, with its
	// leading dot. Empty if the codec does not transform its input.
	Extension() string

	// Magic is the signature which starts every stream written by the
	// codec, or nil if the format has none.
	Magic() []byte

	// NewReader returns a reader decompressing r.
	NewReader(r io.Reader) (Reader, error)

	// NewWriter returns a writer compressing to w. Nothing is guaranteed to
	// reach w before the writer is closed.
	NewWriter(w io.Writer) (Writer, error)
}

// Reader is a decompressing stream. Reset attaches the reader to a new input,
// discarding any buffered state.
type Reader interface {
	io.ReadCloser
	Reset(io.Reader) error
}

// Writer is a compressing stream. Reset attaches the writer to a new output;
// the previous stream must have been closed first or its tail is lost.
type Writer interface {
	io.WriteCloser
	Reset(io.Writer) error
}

// Encode appends the compressed form of src to dst[:0] and returns it.
func Encode(dst, src []byte, codec Codec) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])

	w, err := codec.NewWriter(buf)
	if err != nil {
		return dst, err
	}
	_, err = w.Write(src)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return buf.Bytes(), err
}

// Decode appends the decompressed form of src to dst[:0] and returns it.
func Decode(dst, src []byte, codec Codec) ([]byte, error) {
	r, err := codec.NewReader(bytes.NewReader(src))
	if err != nil {
		return dst, err
	}
	defer r.Close()

	buf := bytes.NewBuffer(dst[:0])
	_, err = buf.ReadFrom(r)
	return buf.Bytes(), err
}

// Sniff returns true if prefix starts with the magic bytes of codec. Codecs
// without a signature never match.
func Sniff(codec Codec, prefix []byte) bool {
	magic := codec.Magic()
	return len(magic) != 0 && bytes.HasPrefix(prefix, magic)
}
