package rntuple

import (
	"github.com/segmentio/rntuple-go/format"
)

// PageStat is one row of the page statistics of an index.
type PageStat struct {
	Column     int
	Cluster    int
	ColumnType format.ColumnType
	Size       int64
	Elements   int64
}

// BytesPerElement returns the average number of bytes used by one element of
// the page, or zero if the page holds no elements.
func (s PageStat) BytesPerElement() float64 {
	if s.Elements == 0 {
		return 0
	}
	return float64(s.Size) / float64(s.Elements)
}

// PageStats returns one row per page of the index, ordered by column id, then
// by cluster id, then by position of the page in the cluster. A page claimed
// by several columns is listed once, under the column owning it.
func PageStats(idx *Index) []PageStat {
	schema := idx.schema
	stats := make([]PageStat, 0, idx.report.NumPages)

	for columnID := 0; columnID < schema.NumColumns(); columnID++ {
		c := schema.Column(columnID)
		for _, cluster := range c.clusters {
			for _, page := range cluster.Pages {
				if page.Duplicate {
					continue
				}
				stats = append(stats, PageStat{
					Column:     columnID,
					Cluster:    cluster.ClusterID,
					ColumnType: c.typ,
					Size:       page.Size,
					Elements:   page.Elements,
				})
			}
		}
	}

	return stats
}
