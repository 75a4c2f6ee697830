// Package medialaxis implements the C3 component of spec.md §4.3: a
// Voronoi-based medial-axis extraction over a HoledPolygon's boundary
// segments, pruned to the region of local width in [minWidth, maxWidth],
// walked into open polylines and extended/clipped at their endpoints.
//
// No Go Voronoi-diagram library exists in the retrieval pack (the teacher's
// domain is clipping/offsetting, not Voronoi construction), so the diagram
// is built directly: each candidate axis point is a point equidistant from
// a pair of boundary segments, found by sampling their closest approach and
// validated (isClosestPair) against every other boundary segment so a point
// nearer some third segment is rejected — the same nearest-two-sites test a
// segment Voronoi diagram's cell boundaries satisfy by construction. See
// DESIGN.md for the full grounding note.
package medialaxis

import (
	"math"

	"github.com/jdfr/multires/internal/geom"
)

// segment is one boundary edge of the HoledPolygon, oriented consistently
// with its parent path's winding.
type segment struct {
	a, b geom.Point
}

func (s segment) vector() (float64, float64) {
	return float64(s.b.X - s.a.X), float64(s.b.Y - s.a.Y)
}

func (s segment) length() float64 {
	dx, dy := s.vector()
	return math.Hypot(dx, dy)
}

// closestPoint returns the closest point on s to pt and the parametric t in [0,1].
func (s segment) closestPoint(pt geom.Point) (geom.Point, float64) {
	dx, dy := s.vector()
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return s.a, 0
	}
	t := (float64(pt.X-s.a.X)*dx + float64(pt.Y-s.a.Y)*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return geom.Point{
		X: s.a.X + int64(t*dx),
		Y: s.a.Y + int64(t*dy),
	}, t
}

// distanceToPoint is the Euclidean distance from pt to the segment.
func (s segment) distanceToPoint(pt geom.Point) float64 {
	cp, _ := s.closestPoint(pt)
	return math.Hypot(float64(pt.X-cp.X), float64(pt.Y-cp.Y))
}

// angleBetween returns the unsigned angle in radians between the segments'
// direction vectors, used for the "opposite-direction parent segments"
// pruning test (spec.md §4.3 step 4a): the test wants segments that face
// each other, i.e. whose directions differ by close to π.
func angleBetween(a, b segment) float64 {
	ax, ay := a.vector()
	bx, by := b.vector()
	dot := ax*bx + ay*by
	la := math.Hypot(ax, ay)
	lb := math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := dot / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// segmentsFromHoledPolygon extracts all boundary edges (outer CCW, holes CW),
// matching the original's HoledPolygon::addToSegments.
func segmentsFromHoledPolygon(hp geom.HoledPolygon) []segment {
	var segs []segment
	segs = append(segs, segmentsFromPath(hp.Outer)...)
	for _, h := range hp.Holes {
		segs = append(segs, segmentsFromPath(h)...)
	}
	return segs
}

func segmentsFromPath(p geom.Path) []segment {
	if len(p) < 2 {
		return nil
	}
	segs := make([]segment, 0, len(p))
	for i := range p {
		j := (i + 1) % len(p)
		if p[i] == p[j] {
			continue
		}
		segs = append(segs, segment{a: p[i], b: p[j]})
	}
	return segs
}

func adjacent(a, b segment) bool {
	return a.a == b.a || a.a == b.b || a.b == b.a || a.b == b.b
}
