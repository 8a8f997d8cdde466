package rntuple

import (
	"fmt"
	"strings"

	"github.com/segmentio/rntuple-go/compress"
	"github.com/segmentio/rntuple-go/compress/brotli"
	"github.com/segmentio/rntuple-go/compress/gzip"
	"github.com/segmentio/rntuple-go/compress/lz4"
	"github.com/segmentio/rntuple-go/compress/snappy"
	"github.com/segmentio/rntuple-go/compress/uncompressed"
	"github.com/segmentio/rntuple-go/compress/zstd"
)

var (
	// Uncompressed is a codec which does not transform documents.
	Uncompressed uncompressed.Codec

	// Gzip is the gzip codec, the default for layout documents.
	Gzip = gzip.Codec{
		Level: gzip.DefaultLevel,
	}

	Snappy snappy.Codec

	Brotli = brotli.Codec{
		Quality: brotli.DefaultQuality,
		LGWin:   brotli.DefaultLGWin,
	}

	Zstd = zstd.Codec{
		Level:       zstd.DefaultLevel,
		Concurrency: zstd.DefaultConcurrency,
	}

	Lz4 lz4.Codec

	codecs = [...]compress.Codec{
		&Uncompressed,
		&Gzip,
		&Snappy,
		&Brotli,
		&Zstd,
		&Lz4,
	}
)

// LookupCodec returns the codec registered under the given name, matched
// case-insensitively. The empty string selects the uncompressed codec.
func LookupCodec(name string) (compress.Codec, error) {
	if name == "" {
		return &Uncompressed, nil
	}
	for _, c := range codecs {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown compression codec %q", name)
}

// CodecOf returns the codec of the document at path, determined from its file
// name extension. Paths without a known extension are uncompressed.
func CodecOf(path string) compress.Codec {
	for _, c := range codecs {
		if ext := c.Extension(); ext != "" && strings.HasSuffix(path, ext) {
			return c
		}
	}
	return &Uncompressed
}

// DetectCodec returns the codec of a document starting with prefix. The magic
// bytes of the stream take precedence over the extension of path, which is
// only used for formats without a signature.
func DetectCodec(path string, prefix []byte) compress.Codec {
	for _, c := range codecs {
		if compress.Sniff(c, prefix) {
			return c
		}
	}
	return CodecOf(path)
}
