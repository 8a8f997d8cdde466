package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/compress"
	"github.com/segmentio/rntuple-go/internal/metrics"
	"github.com/segmentio/rntuple-go/internal/test"
	"github.com/segmentio/rntuple-go/profile"
	"github.com/segmentio/rntuple-go/sink"
)

const smallFile = `{
	"name": "small.root",
	"uuid": "2f1d6a44-9c0b-4b7e-8d7e-6b1e2f3a4c5d",
	"size": 2048,
	"begin": 100,
	"keyList": {"offset": 1900, "size": 60},
	"streamerInfo": {"offset": 1960, "size": 80},
	"keys": [{"name": "Events", "className": "ROOT::RNTuple", "offset": 1800, "size": 90}],
	"rntuples": [{
		"name": "Events",
		"header": {"offset": 100, "size": 200},
		"footer": {"offset": 1000, "size": 100},
		"schema": {
			"fields": [
				{"parentFieldId": 0, "structuralRole": "Record", "fieldName": "evt", "typeName": "Event"},
				{"parentFieldId": 0, "structuralRole": "Leaf", "fieldName": "pt", "typeName": "float"}
			],
			"columns": [
				{"columnType": "Real32", "bitsOnStorage": 32, "fieldId": 1}
			]
		},
		"clusterGroups": [{
			"numClusters": 1,
			"pageListLink": {"offset": 900, "size": 64},
			"pageList": {
				"clusters": [{"firstEntryNumber": 0, "entryCount": 64}],
				"pageLocations": [[{"pages": [{"offset": 512, "size": 128, "elements": 64}]}]]
			}
		}]
	}]
}`

func TestRunUsage(t *testing.T) {
	tests := []struct {
		scenario string
		args     []string
	}{
		{scenario: "no command", args: nil},
		{scenario: "unknown command", args: []string{"cat", "small.json"}},
		{scenario: "no input files", args: []string{"index"}},
		{scenario: "unknown flag", args: []string{"index", "-bogus", "small.json"}},
		{scenario: "invalid configuration", args: []string{"layout", "-compression", "lzma", "small.json"}},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			assert.Equal(t, 2, run(test.args, io.Discard))
		})
	}
}

func TestIndexCommand(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		path := test.WriteFile(t, dir, "small.json", []byte(smallFile))

		stdout := new(bytes.Buffer)
		require.Equal(t, 0, run([]string{"index", "-j", "2", path}, stdout))

		out := stdout.String()
		assert.Contains(t, out, "rntuple Events {\n")
		assert.Contains(t, out, "\t[0] evt: Record (Event)\n")
		assert.Contains(t, out, "\t\t[1] pt: Leaf (float)\n")
		assert.Contains(t, out, "page {offset: 512, size: 128, elements: 64}\n")
	})
}

func TestIndexCommandCompressedInput(t *testing.T) {
	tests := []struct {
		name  string
		codec compress.Codec
	}{
		{name: "small.json.gz", codec: &rntuple.Gzip},
		{name: "small.json.br", codec: &rntuple.Brotli},
		// Detected from the magic bytes of the stream.
		{name: "small.json", codec: &rntuple.Zstd},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			compressed, err := compress.Encode(nil, []byte(smallFile), test.codec)
			require.NoError(t, err)

			dir := t.TempDir()
			path := filepath.Join(dir, test.name)
			require.NoError(t, os.WriteFile(path, compressed, 0644))

			stdout := new(bytes.Buffer)
			require.Equal(t, 0, run([]string{"index", path}, stdout))
			assert.Contains(t, stdout.String(), "rntuple Events {\n")
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		path := test.WriteFile(t, dir, "small.json", []byte(smallFile))
		out := filepath.Join(dir, "out")

		require.Equal(t, 0, run([]string{"layout", "-o", out, "-compression", "zstd", path}, io.Discard))

		file, err := os.Open(filepath.Join(out, "small.layout.json.zst"))
		require.NoError(t, err)
		defer test.Close(t, file)

		doc, err := profile.ReadDocument(file, &rntuple.Zstd)
		require.NoError(t, err)
		assert.Equal(t, "small.root", doc.Name)

		p, err := doc.Profile()
		require.NoError(t, err)
		assert.Equal(t, int64(2048), p.EndValue)

		opens, closes := p.Counts()
		assert.Equal(t, opens, closes)
	})
}

func TestPagesCommandCSV(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		path := test.WriteFile(t, dir, "small.json", []byte(smallFile))

		stdout := new(bytes.Buffer)
		require.Equal(t, 0, run([]string{"pages", "-csv", path}, stdout))
		test.Diff(t, "ColumnType,PageSize,NumElements\nReal32,128,64\n", stdout.String())
	})
}

func TestPagesCommandTable(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		path := test.WriteFile(t, dir, "small.json", []byte(smallFile))

		stdout := new(bytes.Buffer)
		require.Equal(t, 0, run([]string{"pages", path}, stdout))
		assert.Contains(t, stdout.String(), "Bytes/Element")
		assert.Contains(t, stdout.String(), "2.00")
	})
}

func TestFailuresAreIsolated(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		good := test.WriteFile(t, dir, "small.json", []byte(smallFile))
		bad := test.WriteFile(t, dir, "broken.json", []byte(`{"name": `))
		missing := filepath.Join(dir, "missing.json")

		stdout := new(bytes.Buffer)
		assert.Equal(t, 1, run([]string{"index", bad, good, missing}, stdout))
		assert.Contains(t, stdout.String(), "rntuple Events {\n")
	})
}

type fakeStore struct {
	rows []*sink.Rows
}

func (s *fakeStore) Store(ctx context.Context, rows *sink.Rows) (map[string]int, error) {
	s.rows = append(s.rows, rows)
	return rows.Counts(), nil
}

func TestStoreCommand(t *testing.T) {
	test.WithTestDir(t, func(dir string) {
		path := test.WriteFile(t, dir, "small.json", []byte(smallFile))

		store := new(fakeStore)
		cmd := &command{
			name:    "store",
			config:  defaultConfig(),
			metrics: metrics.NewRegistry(),
			stdout:  io.Discard,
			store:   store,
		}
		cmd.config.Dataset = "run3"

		assert.Equal(t, 0, cmd.runFiles(context.Background(), []string{path}, storeCommand))
		require.Len(t, store.rows, 1)

		rows := store.rows[0]
		require.Len(t, rows.Datasets, 1)
		assert.Equal(t, "run3", rows.Datasets[0].Name)
		assert.Equal(t, sink.DatasetID("run3"), rows.Datasets[0].ID)

		assert.Equal(t, float64(1), testutil.ToFloat64(cmd.metrics.RowsStoredTotal.WithLabelValues("page")))
		assert.Equal(t, float64(2), testutil.ToFloat64(cmd.metrics.RowsStoredTotal.WithLabelValues("field")))
		assert.Equal(t, float64(1), testutil.ToFloat64(cmd.metrics.FilesTotal.WithLabelValues("store", "ok")))
	})
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "small.json", want: "small"},
		{path: "/data/small.json.gz", want: "small"},
		{path: "run/events.json.zst", want: "events"},
		{path: "events", want: "events"},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			assert.Equal(t, test.want, baseName(test.path))
		})
	}
}
