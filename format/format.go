// Package format contains the in-memory representation of RNTuple file
// descriptions.
//
// The types in this package are produced by an external reader which decodes
// the ROOT container, decompresses the RNTuple envelopes and deserializes
// them. Nothing in this package reads the binary format itself; the values are
// exchanged as JSON description documents (see Decode).
//
// https://github.com/root-project/root/blob/master/tree/ntuple/doc/BinaryFormatSpecification.md
package format

import (
	"fmt"

	"github.com/google/uuid"
)

// RNTupleClassName is the class name of the ROOT keys holding RNTuple anchors.
const RNTupleClassName = "ROOT::RNTuple"

// Locator identifies a contiguous range of bytes in a file.
type Locator struct {
	Offset int64 `json:"offset"`
	Size   int64 `json:"size"`
}

// End returns the offset of the first byte after the range.
func (l Locator) End() int64 { return l.Offset + l.Size }

func (l Locator) String() string {
	return fmt.Sprintf("[%d,%d)", l.Offset, l.End())
}

// PageLocation is the locator of a single page, with the number of elements
// stored in the page.
//
// A negative element count indicates that the page is followed by a checksum,
// the number of elements is then the absolute value.
type PageLocation struct {
	Locator
	NumElements int32 `json:"elements"`
}

// Elements returns the number of elements stored in the page.
func (p PageLocation) Elements() int64 {
	if p.NumElements < 0 {
		return -int64(p.NumElements)
	}
	return int64(p.NumElements)
}

// HasChecksum returns true if the page is followed by a checksum.
func (p PageLocation) HasChecksum() bool { return p.NumElements < 0 }

// PageRange is the list of pages of one column within one cluster.
type PageRange struct {
	Pages               []PageLocation `json:"pages"`
	ElementOffset       int64          `json:"elementOffset"`
	CompressionSettings uint32         `json:"compressionSettings"`
}

// ClusterSummary describes the range of entries held by a cluster.
type ClusterSummary struct {
	FirstEntryNumber uint64 `json:"firstEntryNumber"`
	EntryCount       uint64 `json:"entryCount"`
	FeatureFlag      uint8  `json:"featureFlag"`
}

// PageList is the content of a page list envelope. Page locations are indexed
// by cluster first, then by physical column id.
type PageList struct {
	Clusters      []ClusterSummary `json:"clusters"`
	PageLocations [][]PageRange    `json:"pageLocations"`
}

// ClusterGroup is a footer record linking to the page list envelope of a
// group of clusters.
type ClusterGroup struct {
	MinEntry     uint64   `json:"minEntry"`
	EntrySpan    uint64   `json:"entrySpan"`
	NumClusters  uint32   `json:"numClusters"`
	PageListLink Locator  `json:"pageListLink"`
	PageList     PageList `json:"pageList"`
}

// FieldDescription is the schema record of a field.
//
// A field whose ParentFieldID equals its own position in the description
// array is a top-level field.
type FieldDescription struct {
	FieldVersion   uint32         `json:"fieldVersion"`
	TypeVersion    uint32         `json:"typeVersion"`
	ParentFieldID  uint32         `json:"parentFieldId"`
	StructuralRole StructuralRole `json:"structuralRole"`
	Flags          FieldFlags     `json:"flags"`
	FieldName      string         `json:"fieldName"`
	TypeName       string         `json:"typeName"`
	TypeAlias      string         `json:"typeAlias,omitempty"`
	Description    string         `json:"description,omitempty"`
	ArraySize      *uint64        `json:"arraySize,omitempty"`
	SourceFieldID  *uint32        `json:"sourceFieldId,omitempty"`
	TypeChecksum   *uint32        `json:"typeChecksum,omitempty"`
}

// ColumnDescription is the schema record of a physical column. The column id
// is the position of the record in the description array.
type ColumnDescription struct {
	Type                ColumnType  `json:"columnType"`
	BitsOnStorage       uint16      `json:"bitsOnStorage"`
	FieldID             uint32      `json:"fieldId"`
	Flags               ColumnFlags `json:"flags"`
	RepresentationIndex uint16      `json:"representationIndex"`
	FirstElementIndex   *int64      `json:"firstElementIndex,omitempty"`
	MinValue            *float64    `json:"minValue,omitempty"`
	MaxValue            *float64    `json:"maxValue,omitempty"`
}

// AliasColumnDescription attaches a physical column to a projected field.
type AliasColumnDescription struct {
	PhysicalColumnID uint32 `json:"physicalColumnId"`
	FieldID          uint32 `json:"fieldId"`
}

// SchemaDescription is the schema of an RNTuple, merged from the header and
// the footer schema extension.
type SchemaDescription struct {
	Fields       []FieldDescription       `json:"fields"`
	Columns      []ColumnDescription      `json:"columns"`
	AliasColumns []AliasColumnDescription `json:"aliasColumns,omitempty"`
}

// RNTuple is the description of one RNTuple stored in a file.
type RNTuple struct {
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Header        Locator           `json:"header"`
	Footer        Locator           `json:"footer"`
	Schema        SchemaDescription `json:"schema"`
	ClusterGroups []ClusterGroup    `json:"clusterGroups"`
}

// PageLists returns the page lists of all cluster groups of t.
func (t *RNTuple) PageLists() []PageList {
	lists := make([]PageList, len(t.ClusterGroups))
	for i := range t.ClusterGroups {
		lists[i] = t.ClusterGroups[i].PageList
	}
	return lists
}

// Key is an entry of the top directory key list.
type Key struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
	Locator
}

// IsRNTuple returns true if the key holds an RNTuple anchor.
func (k *Key) IsRNTuple() bool { return k.ClassName == RNTupleClassName }

// File is the description of a ROOT file holding RNTuples.
type File struct {
	Name         string    `json:"name"`
	UUID         uuid.UUID `json:"uuid"`
	Size         int64     `json:"size"`
	Begin        int64     `json:"begin"`
	KeyList      Locator   `json:"keyList"`
	StreamerInfo Locator   `json:"streamerInfo"`
	Keys         []Key     `json:"keys"`
	RNTuples     []RNTuple `json:"rntuples"`
}

// Lookup returns the RNTuple with the given name, or nil if the file does not
// contain one.
func (f *File) Lookup(name string) *RNTuple {
	for i := range f.RNTuples {
		if f.RNTuples[i].Name == name {
			return &f.RNTuples[i]
		}
	}
	return nil
}
