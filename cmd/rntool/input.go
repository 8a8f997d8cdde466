package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
)

// readFile decodes the description document at path, decompressing it with
// the codec detected from its first bytes or its file name extension.
func readFile(path string) (*format.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := bufio.NewReader(file)
	// A short file yields a short prefix and io.EOF, which Decode reports.
	prefix, _ := buf.Peek(16)
	codec := rntuple.DetectCodec(path, prefix)
	pdebugf("%s: reading %s document", path, codec)

	r, err := codec.NewReader(buf)
	if err != nil {
		return nil, fmt.Errorf("creating %s reader: %w", codec, err)
	}
	defer r.Close()

	f, err := format.Decode(r)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = baseName(path)
	}
	return f, nil
}

// baseName returns the file name of path without the extensions of
// description documents.
func baseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, rntuple.CodecOf(path).Extension())
	name = strings.TrimSuffix(name, ".json")
	return name
}
