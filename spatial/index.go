// Package spatial provides the bounding-box R-tree over geometry records and
// the strict polygon-within-polygon predicate used by subregion expansion.
// The R-tree prunes candidates cheaply so the exact containment test runs
// only on rows whose boxes intersect the AOI.
package spatial

import (
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/project-zeno/aoi-go/catalog"
)

// Index is an immutable R-tree over geometry bounding boxes. Values are
// snapshot row positions. Built once per catalog build; safe for concurrent
// readers afterwards.
type Index struct {
	tr  rtree.RTreeG[int32]
	len int
}

// NewIndex builds an index from per-row bounds. The bounds slice is indexed
// by snapshot position.
func NewIndex(bounds []catalog.Bound) *Index {
	idx := &Index{}
	for i, b := range bounds {
		idx.tr.Insert([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY}, int32(i))
		idx.len++
	}
	return idx
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int {
	return idx.len
}

// CoveredBy returns the rows whose bounding box lies entirely inside b.
// A row strictly within the AOI always has its box inside the AOI's box, so
// this prune never loses a true containment.
func (idx *Index) CoveredBy(b orb.Bound) []int32 {
	var rows []int32
	idx.tr.Search(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		func(min, max [2]float64, row int32) bool {
			if min[0] >= b.Min[0] && min[1] >= b.Min[1] &&
				max[0] <= b.Max[0] && max[1] <= b.Max[1] {
				rows = append(rows, row)
			}
			return true
		},
	)
	return rows
}

// BoundOf converts an orb bound to the catalog's storage shape.
func BoundOf(g orb.Geometry) catalog.Bound {
	b := g.Bound()
	return catalog.Bound{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}
