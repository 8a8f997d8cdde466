// Package sink projects RNTuple indexes onto relational rows.
//
// Every field, column, cluster and page of an index maps onto exactly one row
// and the foreign keys of the rows follow the edges of the index. Row ids are
// name-based UUIDs derived from the dataset name, the file UUID and the
// position of the node in the index, so projecting the same file twice
// produces the same rows. Schema rows (RNTuple, Field, Column and
// ColumnRepresentation) only depend on the dataset and RNTuple names and are
// shared by all the files of a dataset.
package sink

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
)

// Namespace is the UUID namespace of dataset ids.
var Namespace = uuid.MustParse("6f1c2b8e-4a7d-4c0e-9d3b-5e8a1f2c7b90")

type Dataset struct {
	ID   uuid.UUID
	Name string
}

type InputFile struct {
	ID        uuid.UUID
	DatasetID uuid.UUID
	UUID      uuid.UUID
	LFN       string
	Entries   int64
}

type RNTuple struct {
	ID          uuid.UUID
	DatasetID   uuid.UUID
	Name        string
	Description string
}

type RNTupleInstance struct {
	ID        uuid.UUID
	FileID    uuid.UUID
	RNTupleID uuid.UUID
}

type Field struct {
	ID           uuid.UUID
	RNTupleID    uuid.UUID
	ParentID     uuid.NullUUID
	Version      int64
	TypeVersion  int64
	Name         string
	TypeName     string
	TypeAlias    string
	Description  string
	Role         string
	ArraySize    *int64
	TypeChecksum *int64
}

// Column is a logical column of a field. Its physical columns are the
// representations of the column.
type Column struct {
	ID      uuid.UUID
	FieldID uuid.UUID
	Index   int
}

type ColumnRepresentation struct {
	ID                uuid.UUID
	ColumnID          uuid.UUID
	ColumnType        int
	BitsOnStorage     int
	FirstElementIndex *int64
	MinValue          *float64
	MaxValue          *float64
}

type ClusterGroup struct {
	ID                uuid.UUID
	RNTupleInstanceID uuid.UUID
}

type Cluster struct {
	ID             uuid.UUID
	ClusterGroupID uuid.UUID
	EntryStart     int64
	EntryStop      int64
}

// Object is a storage object holding pages, which is the input file itself for
// pages read from files.
type Object struct {
	ID          uuid.UUID
	InputFileID uuid.UUID
}

type PageGroup struct {
	ID                  uuid.UUID
	ObjectID            uuid.UUID
	ClusterID           uuid.UUID
	ColumnRepID         uuid.UUID
	ElementOffset       int64
	CompressionSettings int64
}

type Page struct {
	ID          uuid.UUID
	PageGroupID uuid.UUID
	Index       int
	Offset      int64
	Size        int64
	Elements    int64
}

type AliasColumn struct {
	FieldID  uuid.UUID
	ColumnID uuid.UUID
}

// Rows is the relational projection of the RNTuples of a file.
type Rows struct {
	Datasets              []Dataset
	InputFiles            []InputFile
	RNTuples              []RNTuple
	RNTupleInstances      []RNTupleInstance
	Fields                []Field
	Columns               []Column
	ColumnRepresentations []ColumnRepresentation
	ClusterGroups         []ClusterGroup
	Clusters              []Cluster
	Objects               []Object
	PageGroups            []PageGroup
	Pages                 []Page
	AliasColumns          []AliasColumn
}

// Counts returns the number of rows per table name.
func (r *Rows) Counts() map[string]int {
	return map[string]int{
		"dataset":               len(r.Datasets),
		"input_file":            len(r.InputFiles),
		"rntuple":               len(r.RNTuples),
		"rntuple_instance":      len(r.RNTupleInstances),
		"field":                 len(r.Fields),
		"column":                len(r.Columns),
		"column_representation": len(r.ColumnRepresentations),
		"cluster_group":         len(r.ClusterGroups),
		"cluster":               len(r.Clusters),
		"object":                len(r.Objects),
		"page_group":            len(r.PageGroups),
		"page":                  len(r.Pages),
		"alias_column":          len(r.AliasColumns),
	}
}

// DatasetID returns the id of the dataset with the given name.
func DatasetID(name string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(name))
}

func childID(parent uuid.UUID, format string, args ...interface{}) uuid.UUID {
	return uuid.NewSHA1(parent, []byte(fmt.Sprintf(format, args...)))
}

// Project returns the rows of the RNTuples of f, in the given dataset.
//
// The indexes map provides the index of each RNTuple by name; missing indexes
// are built from the file description.
func Project(dataset string, f *format.File, indexes map[string]*rntuple.Index) (*Rows, error) {
	datasetID := DatasetID(dataset)

	fileID := f.UUID
	if fileID == uuid.Nil {
		fileID = childID(datasetID, "file/%s", f.Name)
	}
	objectID := childID(fileID, "object")

	rows := &Rows{
		Datasets: []Dataset{{ID: datasetID, Name: dataset}},
		Objects:  []Object{{ID: objectID, InputFileID: fileID}},
	}
	file := InputFile{
		ID:        fileID,
		DatasetID: datasetID,
		UUID:      f.UUID,
		LFN:       f.Name,
	}

	for i := range f.RNTuples {
		desc := &f.RNTuples[i]

		idx := indexes[desc.Name]
		if idx == nil {
			var err error
			if idx, err = rntuple.NewIndex(desc); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}

		p := &projection{
			rows:     rows,
			desc:     desc,
			idx:      idx,
			objectID: objectID,
		}
		entries := p.project(datasetID, fileID)
		if entries > file.Entries {
			file.Entries = entries
		}
	}

	rows.InputFiles = []InputFile{file}
	return rows, nil
}

type projection struct {
	rows     *Rows
	desc     *format.RNTuple
	idx      *rntuple.Index
	objectID uuid.UUID

	fieldIDs  []uuid.UUID
	columnIDs []uuid.UUID // logical column id of each physical column
	repIDs    []uuid.UUID
}

// project appends the rows of one RNTuple and returns its number of entries.
func (p *projection) project(datasetID, fileID uuid.UUID) int64 {
	tupleID := childID(datasetID, "rntuple/%s", p.desc.Name)
	instanceID := childID(fileID, "rntuple/%s", p.desc.Name)

	p.rows.RNTuples = append(p.rows.RNTuples, RNTuple{
		ID:          tupleID,
		DatasetID:   datasetID,
		Name:        p.desc.Name,
		Description: p.desc.Description,
	})
	p.rows.RNTupleInstances = append(p.rows.RNTupleInstances, RNTupleInstance{
		ID:        instanceID,
		FileID:    fileID,
		RNTupleID: tupleID,
	})

	p.projectSchema(tupleID)
	return p.projectClusters(instanceID)
}

func (p *projection) projectSchema(tupleID uuid.UUID) {
	schema := p.idx.Schema()
	fields := schema.Fields()

	p.fieldIDs = make([]uuid.UUID, len(fields))
	for i, f := range fields {
		p.fieldIDs[i] = childID(tupleID, "field/%d", f.ID())
	}

	p.columnIDs = make([]uuid.UUID, schema.NumColumns())
	p.repIDs = make([]uuid.UUID, schema.NumColumns())

	for _, f := range fields {
		row := Field{
			ID:          p.fieldIDs[f.ID()],
			RNTupleID:   tupleID,
			Version:     int64(f.Version()),
			TypeVersion: int64(f.TypeVersion()),
			Name:        f.Name(),
			TypeName:    f.TypeName(),
			TypeAlias:   f.TypeAlias(),
			Description: f.Description(),
			Role:        f.Role().String(),
		}
		if parentID, ok := f.Parent().ID(); ok {
			row.ParentID = uuid.NullUUID{UUID: p.fieldIDs[parentID], Valid: true}
		}
		flags := f.Flags()
		if flags.Repetitive {
			size := int64(flags.ArraySize)
			row.ArraySize = &size
		}
		if flags.HasTypeChecksum {
			checksum := int64(flags.TypeChecksum)
			row.TypeChecksum = &checksum
		}
		p.rows.Fields = append(p.rows.Fields, row)

		// Physical columns of a field are ordered by representation, the
		// logical column is the position within the representation.
		positions := make(map[int]int)
		for _, c := range f.Columns() {
			index := positions[c.RepresentationIndex()]
			positions[c.RepresentationIndex()]++

			columnID := childID(row.ID, "column/%d", index)
			if !hasColumn(p.rows.Columns, row.ID, columnID) {
				p.rows.Columns = append(p.rows.Columns, Column{
					ID:      columnID,
					FieldID: row.ID,
					Index:   index,
				})
			}

			repID := childID(tupleID, "column_representation/%d", c.ID())
			p.columnIDs[c.ID()] = columnID
			p.repIDs[c.ID()] = repID

			rep := ColumnRepresentation{
				ID:            repID,
				ColumnID:      columnID,
				ColumnType:    int(c.Type()),
				BitsOnStorage: c.BitsOnStorage(),
			}
			cflags := c.Flags()
			if cflags.Deferred {
				first := cflags.FirstElementIndex
				rep.FirstElementIndex = &first
			}
			if cflags.HasValueRange {
				lo, hi := cflags.MinValue, cflags.MaxValue
				rep.MinValue, rep.MaxValue = &lo, &hi
			}
			p.rows.ColumnRepresentations = append(p.rows.ColumnRepresentations, rep)
		}
	}

	for _, f := range fields {
		for _, alias := range f.AliasColumns() {
			p.rows.AliasColumns = append(p.rows.AliasColumns, AliasColumn{
				FieldID:  p.fieldIDs[f.ID()],
				ColumnID: p.columnIDs[alias.PhysicalColumnID],
			})
		}
	}
}

// hasColumn looks for a column among the trailing columns of the field.
func hasColumn(columns []Column, fieldID, id uuid.UUID) bool {
	for i := len(columns) - 1; i >= 0 && columns[i].FieldID == fieldID; i-- {
		if columns[i].ID == id {
			return true
		}
	}
	return false
}

func (p *projection) projectClusters(instanceID uuid.UUID) int64 {
	entries := int64(0)
	if len(p.desc.ClusterGroups) == 0 {
		return entries
	}

	groupID := childID(instanceID, "cluster_group/0")
	p.rows.ClusterGroups = append(p.rows.ClusterGroups, ClusterGroup{
		ID:                groupID,
		RNTupleInstanceID: instanceID,
	})

	summaries := p.desc.ClusterGroups[0].PageList.Clusters
	clusterIDs := make([]uuid.UUID, len(summaries))
	for i, summary := range summaries {
		clusterIDs[i] = childID(groupID, "cluster/%d", i)
		stop := int64(summary.FirstEntryNumber + summary.EntryCount)
		p.rows.Clusters = append(p.rows.Clusters, Cluster{
			ID:             clusterIDs[i],
			ClusterGroupID: groupID,
			EntryStart:     int64(summary.FirstEntryNumber),
			EntryStop:      stop,
		})
		if stop > entries {
			entries = stop
		}
	}

	schema := p.idx.Schema()
	for columnID := 0; columnID < schema.NumColumns(); columnID++ {
		c := schema.Column(columnID)
		for _, cluster := range c.Clusters() {
			pageGroupID := childID(instanceID, "page_group/%d/%d", cluster.ClusterID, columnID)
			p.rows.PageGroups = append(p.rows.PageGroups, PageGroup{
				ID:                  pageGroupID,
				ObjectID:            p.objectID,
				ClusterID:           clusterIDs[cluster.ClusterID],
				ColumnRepID:         p.repIDs[columnID],
				ElementOffset:       cluster.ElementOffset,
				CompressionSettings: int64(cluster.CompressionSettings),
			})
			for i, page := range cluster.Pages {
				p.rows.Pages = append(p.rows.Pages, Page{
					ID:          childID(pageGroupID, "page/%d", i),
					PageGroupID: pageGroupID,
					Index:       i,
					Offset:      page.Offset,
					Size:        page.Size,
					Elements:    page.Elements,
				})
			}
		}
	}

	return entries
}
