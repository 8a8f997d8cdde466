package rntuple_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/compress"
)

func TestLookupCodec(t *testing.T) {
	for _, name := range []string{"gzip", "ZSTD", "brotli", "lz4", "snappy", "none"} {
		codec, err := rntuple.LookupCodec(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(name), codec.String())
	}

	codec, err := rntuple.LookupCodec("")
	require.NoError(t, err)
	assert.Equal(t, "", codec.Extension())

	_, err = rntuple.LookupCodec("lzma")
	assert.Error(t, err)
}

func TestCodecOf(t *testing.T) {
	tests := []struct {
		path  string
		codec string
	}{
		{"events.layout.json.gz", "gzip"},
		{"events.json.zst", "zstd"},
		{"events.json.br", "brotli"},
		{"events.json.lz4", "lz4"},
		{"events.json.sz", "snappy"},
		{"events.json", "none"},
	}

	for _, test := range tests {
		assert.Equal(t, test.codec, rntuple.CodecOf(test.path).String(), test.path)
	}
}

func TestDetectCodec(t *testing.T) {
	document := []byte(`{"name": "events.root"}`)

	zst, err := compress.Encode(nil, document, &rntuple.Zstd)
	require.NoError(t, err)
	br, err := compress.Encode(nil, document, &rntuple.Brotli)
	require.NoError(t, err)

	tests := []struct {
		scenario string
		path     string
		prefix   []byte
		codec    string
	}{
		{"magic wins over extension", "events.json.gz", zst, "zstd"},
		{"magic without extension", "events.json", zst, "zstd"},
		{"extension without magic", "events.json.br", br, "brotli"},
		{"plain document", "events.json", document, "none"},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			assert.Equal(t, test.codec, rntuple.DetectCodec(test.path, test.prefix).String())
		})
	}
}
