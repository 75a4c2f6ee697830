package medialaxis

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/lvlath/core"

	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// parentAngleTolerance is the |π − α| ≤ π/5 test of spec.md §4.3 step 4a.
const parentAngleTolerance = math.Pi / 5

// candidateSamples governs how finely segments are sampled when looking for
// equidistant bisector points between segment pairs; coarser than a true
// Fortune/Boost.Polygon Voronoi construction, but it is what lets this
// package run without an external computational-geometry dependency (see
// DESIGN.md's Open Question resolution).
const candidateSamples = 24

// axisVertex is one candidate medial-axis point, equidistant (within
// tolerance) from its two parent segments.
type axisVertex struct {
	id       string
	pt       geom.Point
	distance float64
	parentA  segment
	parentB  segment
}

// Extract returns open polylines approximating the medial axis of hp that
// fit through regions of local width in [minWidth, maxWidth], per spec.md
// §4.3.
func Extract(hp geom.HoledPolygon, minWidth, maxWidth float64) ([]geom.Path, error) {
	bb := geom.BoundsOf(geom.PolygonSet{hp.Outer})
	transform := bb.FitToInt32()

	working := hp
	if transform.Scale != 1 {
		working = transformHoledPolygon(hp, transform)
	}

	segs := segmentsFromHoledPolygon(working)
	if len(segs) < 2 {
		return nil, nil
	}

	vertices := buildCandidateVertices(segs, minWidth, maxWidth)
	g, err := buildGraph(vertices)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidGeometry, err, "medial axis graph construction failed")
	}

	lines := walkGraph(g, vertices)

	clipped := clipAndExtend(hp, working, transform, lines, maxWidth)

	result := make([]geom.Path, 0, len(clipped))
	for _, l := range clipped {
		if pathLength(l) >= maxWidth {
			result = append(result, l)
		}
	}
	return result, nil
}

// buildCandidateVertices finds, for each pair of non-adjacent segments that
// face each other, the bisector point of closest approach, and keeps it
// when the two parent-segment distances agree within minWidth (the
// "narrowing region" test is applied later during pruning) and the
// resulting width lies in [minWidth, maxWidth].
func buildCandidateVertices(segs []segment, minWidth, maxWidth float64) []axisVertex {
	var verts []axisVertex
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			if adjacent(a, b) {
				continue
			}
			angle := angleBetween(a, b)
			if math.Abs(math.Pi-angle) > parentAngleTolerance {
				continue
			}
			for k := 0; k <= candidateSamples; k++ {
				t := float64(k) / float64(candidateSamples)
				sample := geom.Point{
					X: a.a.X + int64(t*float64(a.b.X-a.a.X)),
					Y: a.a.Y + int64(t*float64(a.b.Y-a.a.Y)),
				}
				mid, _ := b.closestPoint(sample)
				pt := geom.Point{X: (sample.X + mid.X) / 2, Y: (sample.Y + mid.Y) / 2}
				da := a.distanceToPoint(pt)
				db := b.distanceToPoint(pt)
				width := da + db
				if math.Abs(da-db) > minWidth {
					continue
				}
				if width < minWidth*2 || width > maxWidth*2 {
					continue
				}
				if !isClosestPair(segs, pt, a, b, math.Min(da, db)) {
					continue
				}
				verts = append(verts, axisVertex{
					id:       fmt.Sprintf("v%d", len(verts)),
					pt:       pt,
					distance: (da + db) / 2,
					parentA:  a,
					parentB:  b,
				})
			}
		}
	}
	return verts
}

// isClosestPair rejects a candidate point equidistant from a and b if some
// third boundary segment is strictly nearer: a true segment-Voronoi bisector
// point belongs to exactly the two cells of its nearest segments, so a point
// nearer a third segment is not on the medial axis even though it happens to
// satisfy the a/b equidistance test.
func isClosestPair(segs []segment, pt geom.Point, a, b segment, d float64) bool {
	const eps = 1e-6
	for _, s := range segs {
		if s == a || s == b {
			continue
		}
		if s.distanceToPoint(pt) < d-eps {
			return false
		}
	}
	return true
}

func buildGraph(vertices []axisVertex) (*core.Graph, error) {
	g := core.NewGraph()
	for _, v := range vertices {
		if err := g.AddVertex(v.id); err != nil {
			return nil, err
		}
	}
	// Connect vertices that are spatially close and share a parent segment,
	// approximating adjacency along the true Voronoi edge.
	for i := 0; i < len(vertices); i++ {
		for j := i + 1; j < len(vertices); j++ {
			vi, vj := vertices[i], vertices[j]
			if vi.parentA != vj.parentA && vi.parentA != vj.parentB &&
				vi.parentB != vj.parentA && vi.parentB != vj.parentB {
				continue
			}
			d := math.Hypot(float64(vi.pt.X-vj.pt.X), float64(vi.pt.Y-vj.pt.Y))
			if d > 0 && d < math.Max(vi.distance, vj.distance) {
				if !g.HasEdge(vi.id, vj.id) {
					_, _ = g.AddEdge(vi.id, vj.id, 0)
				}
			}
		}
	}
	return g, nil
}

// walkGraph walks the surviving graph into open polylines, breaking at
// bifurcations, per spec.md §4.3 step 5: starting from every degree-1
// (leaf) vertex, it follows the single chain of degree-2 vertices until it
// reaches another leaf or a bifurcation (degree > 2). The "stop at a branch
// point" rule isn't expressible through lvlath/core's generic traversal
// hooks, so the chain-following loop is hand-rolled here against
// core.Graph's Degree/NeighborIDs queries.
func walkGraph(g *core.Graph, vertices []axisVertex) []geom.Path {
	byID := make(map[string]axisVertex, len(vertices))
	for _, v := range vertices {
		byID[v.id] = v
	}

	var leaves []string
	for _, id := range g.Vertices() {
		_, _, undirected, _ := g.Degree(id)
		if undirected == 1 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)

	visitedEdge := make(map[[2]string]bool)
	var paths []geom.Path

	walkFrom := func(start string) {
		prev := ""
		curr := start
		chain := []string{curr}
		for {
			neighbors, err := g.NeighborIDs(curr)
			if err != nil {
				break
			}
			var next string
			for _, n := range neighbors {
				if n != prev {
					next = n
					break
				}
			}
			if next == "" {
				break
			}
			chain = append(chain, next)
			_, _, undirected, _ := g.Degree(next)
			prev, curr = curr, next
			if undirected != 2 {
				break
			}
		}
		if len(chain) < 2 {
			return
		}
		edgeKey := [2]string{chain[0], chain[len(chain)-1]}
		revKey := [2]string{chain[len(chain)-1], chain[0]}
		if visitedEdge[edgeKey] || visitedEdge[revKey] {
			return
		}
		visitedEdge[edgeKey] = true
		path := make(geom.Path, len(chain))
		for i, id := range chain {
			path[i] = byID[id].pt
		}
		paths = append(paths, path)
	}

	for _, start := range leaves {
		walkFrom(start)
	}
	return paths
}

func pathLength(p geom.Path) float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += math.Hypot(float64(p[i].X-p[i-1].X), float64(p[i].Y-p[i-1].Y))
	}
	return total
}

func transformHoledPolygon(hp geom.HoledPolygon, t geom.Transform2D) geom.HoledPolygon {
	out := geom.HoledPolygon{Outer: transformPath(hp.Outer, t)}
	for _, h := range hp.Holes {
		out.Holes = append(out.Holes, transformPath(h, t))
	}
	return out
}

func transformPath(p geom.Path, t geom.Transform2D) geom.Path {
	out := make(geom.Path, len(p))
	for i, pt := range p {
		out[i] = t.Apply(pt)
	}
	return out
}
