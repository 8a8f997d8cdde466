package rntuple_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
)

// eventsFile describes a file holding one RNTuple with a record field "evt"
// which has two float leaves, a vector of ints and a projected field aliasing
// the column of "px".
const eventsFile = `{
	"name": "events.root",
	"uuid": "0b8a3f5e-55a1-4c6e-9a8e-2a3c1d9f7b10",
	"size": 4096,
	"begin": 100,
	"keyList": {"offset": 3900, "size": 60},
	"streamerInfo": {"offset": 3960, "size": 100},
	"keys": [
		{"name": "Events", "className": "ROOT::RNTuple", "offset": 3700, "size": 90},
		{"name": "Info", "className": "TNamed", "offset": 3800, "size": 50}
	],
	"rntuples": [{
		"name": "Events",
		"header": {"offset": 100, "size": 200},
		"footer": {"offset": 3500, "size": 100},
		"schema": {
			"fields": [
				{"parentFieldId": 0, "structuralRole": "Record", "fieldName": "evt", "typeName": "Event"},
				{"parentFieldId": 0, "structuralRole": "Leaf", "fieldName": "px", "typeName": "float"},
				{"parentFieldId": 0, "structuralRole": "Leaf", "fieldName": "py", "typeName": "float", "typeAlias": "Float_t", "description": "momentum"},
				{"parentFieldId": 3, "structuralRole": "Collection", "fieldName": "hits", "typeName": "std::vector<int>"},
				{"parentFieldId": 3, "structuralRole": "Leaf", "fieldName": "_0", "typeName": "int"},
				{"parentFieldId": 0, "structuralRole": "Leaf", "flags": 2, "fieldName": "x", "typeName": "float", "sourceFieldId": 1}
			],
			"columns": [
				{"columnType": "SplitReal32", "bitsOnStorage": 32, "fieldId": 1},
				{"columnType": "SplitReal32", "bitsOnStorage": 32, "fieldId": 2},
				{"columnType": "SplitIndex64", "bitsOnStorage": 64, "fieldId": 3},
				{"columnType": "SplitInt32", "bitsOnStorage": 32, "fieldId": 4}
			],
			"aliasColumns": [
				{"physicalColumnId": 0, "fieldId": 5}
			]
		},
		"clusterGroups": [{
			"numClusters": 2,
			"pageListLink": {"offset": 3400, "size": 80},
			"pageList": {
				"clusters": [
					{"firstEntryNumber": 0, "entryCount": 100},
					{"firstEntryNumber": 100, "entryCount": 50}
				],
				"pageLocations": [
					[
						{"pages": [{"offset": 300, "size": 400, "elements": 100}]},
						{"pages": [{"offset": 700, "size": 400, "elements": 100}]},
						{"pages": [{"offset": 1100, "size": 800, "elements": 100}]},
						{"pages": [{"offset": 1900, "size": 300, "elements": 75}, {"offset": 2200, "size": 300, "elements": 75}]}
					],
					[
						{"pages": [{"offset": 2500, "size": 200, "elements": -50}]},
						{"pages": [{"offset": 2700, "size": 200, "elements": 50}]},
						{"pages": [{"offset": 2900, "size": 300, "elements": 50}]},
						{"pages": [{"offset": 3200, "size": 100, "elements": 25}]}
					]
				]
			}
		}]
	}]
}`

func decodeFile(t *testing.T, document string) *format.File {
	t.Helper()
	f, err := format.Decode(strings.NewReader(document))
	require.NoError(t, err)
	return f
}

func eventsIndex(t *testing.T) *rntuple.Index {
	t.Helper()
	f := decodeFile(t, eventsFile)
	idx, err := rntuple.NewIndex(&f.RNTuples[0])
	require.NoError(t, err)
	return idx
}

func TestNewIndex(t *testing.T) {
	idx := eventsIndex(t)
	assert.Equal(t, "Events", idx.Name())

	schema := idx.Schema()
	assert.Equal(t, 6, schema.NumFields())
	assert.Equal(t, 4, schema.NumColumns())
	assert.Equal(t, []int{0, 3}, schema.Roots())
	assert.Equal(t, []int{1, 2, 5}, schema.Field(0).Children())
	assert.Equal(t, []int{4}, schema.Field(3).Children())

	report := idx.Report()
	assert.Equal(t, 2, report.NumClusters)
	assert.Equal(t, 9, report.NumPages)
	assert.Equal(t, int64(3000), report.NumBytes)
	assert.Empty(t, report.SharedPages)

	hits := schema.Column(3)
	require.NotNil(t, hits)
	assert.Equal(t, 4, hits.FieldID())
	assert.Equal(t, 3, hits.NumPages())
	require.Len(t, hits.Clusters(), 2)
	assert.Equal(t, uint64(100), hits.Cluster(1).FirstEntryNumber)
	assert.Equal(t, int64(600), hits.Cluster(0).Size())
	assert.Nil(t, hits.Cluster(2))

	px := schema.Column(0).Cluster(1).Pages[0]
	assert.True(t, px.Checksum)
	assert.Equal(t, int64(50), px.Elements)
}

func TestIndexFile(t *testing.T) {
	indexes, err := rntuple.IndexFile(decodeFile(t, eventsFile))
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.NotNil(t, indexes["Events"])
}

func TestIndexFileError(t *testing.T) {
	f := decodeFile(t, eventsFile)
	f.RNTuples[0].Schema.Columns[0].FieldID = 42

	_, err := rntuple.IndexFile(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rntuple.ErrStructuralInconsistency))
	assert.Contains(t, err.Error(), "events.root")
	assert.Contains(t, err.Error(), `"Events"`)
}
