package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Prepared is an AOI geometry preprocessed for repeated containment tests:
// the multipolygon itself, its bound, and an R-tree over its boundary
// segments. Subregion expansion tests hundreds of candidates against one
// AOI, so the per-AOI setup cost amortizes immediately.
type Prepared struct {
	mp    orb.MultiPolygon
	bound orb.Bound
	edges rtree.RTreeG[segment]
}

type segment struct {
	a, b orb.Point
}

// Prepare builds a Prepared AOI from a polygonal geometry.
func Prepare(g orb.Geometry) (*Prepared, error) {
	mp, err := ToMultiPolygon(g)
	if err != nil {
		return nil, err
	}
	p := &Prepared{mp: mp, bound: mp.Bound()}
	for _, poly := range mp {
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				s := segment{a: ring[i], b: ring[i+1]}
				min, max := segBound(s)
				p.edges.Insert(min, max, s)
			}
		}
	}
	return p, nil
}

// Bound returns the AOI's bounding box.
func (p *Prepared) Bound() orb.Bound {
	return p.bound
}

// Contains reports whether g lies entirely within the AOI, in the ST_Within
// sense: no part of g in the AOI's exterior. Boundary contact is allowed;
// a geometry merely touching the AOI from outside is rejected because its
// vertices fall outside.
//
// The test is: every vertex of g inside (or on the boundary of) the AOI, no
// edge of g properly crossing an AOI boundary edge, and no AOI hole strictly
// inside g. Together these cover containment for valid polygon inputs.
func (p *Prepared) Contains(g orb.Geometry) bool {
	mp, err := ToMultiPolygon(g)
	if err != nil {
		return false
	}

	b := mp.Bound()
	if !boundCovers(p.bound, b) {
		return false
	}

	for _, poly := range mp {
		for _, ring := range poly {
			for _, pt := range ring {
				if !planar.MultiPolygonContains(p.mp, pt) {
					return false
				}
			}
			for i := 0; i+1 < len(ring); i++ {
				if p.edgeCrosses(segment{a: ring[i], b: ring[i+1]}) {
					return false
				}
			}
		}
	}

	// An AOI hole strictly inside the candidate means part of the candidate
	// interior lies in the AOI exterior even with no edge crossings.
	for _, poly := range p.mp {
		for _, hole := range poly[1:] {
			if len(hole) > 0 && b.Contains(hole[0]) && planar.MultiPolygonContains(mp, hole[0]) {
				return false
			}
		}
	}

	return true
}

// edgeCrosses reports whether s properly crosses any AOI boundary edge.
func (p *Prepared) edgeCrosses(s segment) bool {
	min, max := segBound(s)
	crossed := false
	p.edges.Search(min, max, func(_, _ [2]float64, e segment) bool {
		if properCross(s.a, s.b, e.a, e.b) {
			crossed = true
			return false
		}
		return true
	})
	return crossed
}

func segBound(s segment) (min, max [2]float64) {
	min = [2]float64{s.a[0], s.a[1]}
	max = min
	if s.b[0] < min[0] {
		min[0] = s.b[0]
	}
	if s.b[1] < min[1] {
		min[1] = s.b[1]
	}
	if s.b[0] > max[0] {
		max[0] = s.b[0]
	}
	if s.b[1] > max[1] {
		max[1] = s.b[1]
	}
	return min, max
}

// properCross reports whether segments ab and cd cross at an interior point
// of both. Shared endpoints and collinear touches do not count: those are
// boundary contact, which ST_Within permits.
func properCross(a, b, c, d orb.Point) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

// orient returns the sign of the cross product (b-a) x (c-a): positive for
// counter-clockwise, negative for clockwise, zero for collinear.
func orient(a, b, c orb.Point) float64 {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func boundCovers(outer, inner orb.Bound) bool {
	return inner.Min[0] >= outer.Min[0] && inner.Min[1] >= outer.Min[1] &&
		inner.Max[0] <= outer.Max[0] && inner.Max[1] <= outer.Max[1]
}

// ToMultiPolygon normalizes a polygonal geometry to MultiPolygon, the single
// geometry type both stores hold. Other geometry types are rejected.
func ToMultiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}, nil
	case orb.MultiPolygon:
		return v, nil
	case nil:
		return nil, fmt.Errorf("nil geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}
