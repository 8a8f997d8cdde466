package rntuple

import (
	"fmt"

	"github.com/segmentio/rntuple-go/format"
)

// Page is the location of a page in the file. Two pages are the same page if
// they have the same offset and size.
type Page struct {
	Offset   int64
	Size     int64
	Elements int64
	// Checksum is true if the page bytes are followed by a checksum.
	Checksum bool
	// Duplicate is true if the same bytes were claimed earlier in the page
	// list, enumerated cluster by cluster then column by column.
	Duplicate bool
}

// End returns the offset of the first byte after the page.
func (p Page) End() int64 { return p.Offset + p.Size }

func (p Page) String() string {
	return fmt.Sprintf("{offset: %d, size: %d, elements: %d}", p.Offset, p.Size, p.Elements)
}

// ClusterPages is the page index of one column within one cluster.
type ClusterPages struct {
	ClusterID           int
	FirstEntryNumber    uint64
	EntryCount          uint64
	FeatureFlag         uint8
	ElementOffset       int64
	CompressionSettings uint32
	Pages               []Page
}

// Size returns the total size of the pages, in bytes.
func (c *ClusterPages) Size() int64 {
	size := int64(0)
	for _, p := range c.Pages {
		size += p.Size
	}
	return size
}

// ClusterColumn identifies a column within a cluster.
type ClusterColumn struct {
	Cluster int
	Column  int
}

// SharedPage is a diagnostic emitted when the same bytes are claimed by more
// than one (cluster, column) pair.
type SharedPage struct {
	Offset int64
	Size   int64
	// Owner is the first pair which claimed the page, Claimant the pair which
	// claimed it again.
	Owner    ClusterColumn
	Claimant ClusterColumn
}

func (p SharedPage) String() string {
	return fmt.Sprintf("page at offset %d size %d claimed by cluster %d column %d is also claimed by cluster %d column %d",
		p.Offset, p.Size, p.Owner.Cluster, p.Owner.Column, p.Claimant.Cluster, p.Claimant.Column)
}

// PageReport summarizes the result of mapping pages onto a schema.
type PageReport struct {
	NumClusters int
	NumPages    int
	NumBytes    int64
	SharedPages []SharedPage
}

type pageKey struct{ offset, size int64 }

// MapPages attaches the page locations of the given page lists to the columns
// of s, which must have been mapped with MapColumns beforehand.
//
// Only RNTuples with a single cluster group are supported, the method returns
// an error wrapping ErrUnsupportedLayout when more than one page list is
// passed. An empty list of page lists is valid and maps nothing.
//
// Pages claimed by more than one (cluster, column) pair are kept under every
// claimant and reported in the SharedPages field of the returned report. The
// first claim in cluster-major order owns the page, the later ones are
// flagged as Duplicate.
func (s *Schema) MapPages(lookup ColumnLookup, pageLists []format.PageList) (*PageReport, error) {
	if s.mappedPages {
		return nil, fmt.Errorf("mapping pages: %w", ErrAlreadyMapped)
	}

	switch len(pageLists) {
	case 0:
		s.mappedPages = true
		return new(PageReport), nil
	case 1:
	default:
		return nil, fmt.Errorf("found %d cluster groups, only one is supported: %w", len(pageLists), ErrUnsupportedLayout)
	}

	pageList := &pageLists[0]
	if len(pageList.PageLocations) != len(pageList.Clusters) {
		return nil, fmt.Errorf("page list has %d cluster summaries but page locations for %d clusters: %w",
			len(pageList.Clusters), len(pageList.PageLocations), ErrStructuralInconsistency)
	}

	report := &PageReport{NumClusters: len(pageList.Clusters)}
	seen := make(map[pageKey]ClusterColumn)
	clusters := make(map[int][]*ClusterPages)

	for clusterID, summary := range pageList.Clusters {
		for columnID, pageRange := range pageList.PageLocations[clusterID] {
			if _, ok := lookup.FieldID(columnID); !ok || s.Column(columnID) == nil {
				return nil, fmt.Errorf("page list of cluster %d references column %d which is not in the schema: %w",
					clusterID, columnID, ErrStructuralInconsistency)
			}

			owner := ClusterColumn{Cluster: clusterID, Column: columnID}
			pages := make([]Page, len(pageRange.Pages))

			for i, loc := range pageRange.Pages {
				pages[i] = Page{
					Offset:   loc.Offset,
					Size:     loc.Size,
					Elements: loc.Elements(),
					Checksum: loc.HasChecksum(),
				}

				key := pageKey{offset: loc.Offset, size: loc.Size}
				if first, ok := seen[key]; ok {
					pages[i].Duplicate = true
					if first != owner {
						report.SharedPages = append(report.SharedPages, SharedPage{
							Offset:   loc.Offset,
							Size:     loc.Size,
							Owner:    first,
							Claimant: owner,
						})
					}
					continue
				}

				seen[key] = owner
				report.NumPages++
				report.NumBytes += loc.Size
			}

			clusters[columnID] = append(clusters[columnID], &ClusterPages{
				ClusterID:           clusterID,
				FirstEntryNumber:    summary.FirstEntryNumber,
				EntryCount:          summary.EntryCount,
				FeatureFlag:         summary.FeatureFlag,
				ElementOffset:       pageRange.ElementOffset,
				CompressionSettings: pageRange.CompressionSettings,
				Pages:               pages,
			})
		}
	}

	for columnID, pages := range clusters {
		c := s.Column(columnID)
		c.clusters = pages
	}

	s.mappedPages = true
	return report, nil
}
