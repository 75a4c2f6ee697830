package geom

import (
	"sort"

	kernel "github.com/go-clipper/clipper2/port"
)

// BoundingBox is the minimum/maximum X and Y of a set of points, per
// spec.md §3.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY int64
}

// int32SafeMargin is the "31-bit safe range minus 1024" margin spec.md §9's
// Open Question resolves to: keep only this documented version, not the
// undocumented aggressive variant.
const int32SafeMargin = 1024

// Transform2D is a translation followed by a uniform scale, returned by
// FitToInt32 so the inverse can be applied to medial-axis results (spec.md
// §4.3 step 7).
type Transform2D struct {
	TranslateX, TranslateY float64
	Scale                  float64
}

// Apply maps a point forward through the transform.
func (t Transform2D) Apply(p Point) Point {
	return Point{
		X: int64((float64(p.X) + t.TranslateX) * t.Scale),
		Y: int64((float64(p.Y) + t.TranslateY) * t.Scale),
	}
}

// Invert maps a point back through the transform.
func (t Transform2D) Invert(p Point) Point {
	return Point{
		X: int64(float64(p.X)/t.Scale - t.TranslateX),
		Y: int64(float64(p.Y)/t.Scale - t.TranslateY),
	}
}

// BoundsOf computes the BoundingBox of a PolygonSet.
func BoundsOf(ps PolygonSet) BoundingBox {
	kp := toKernelPaths(ps)
	r := kernel.BoundsPaths64(kp)
	return BoundingBox{MinX: r.Left, MinY: r.Top, MaxX: r.Right, MaxY: r.Bottom}
}

// FitToInt32 returns a translation+uniform-scale transform mapping the box
// into the 31-bit-safe range (MinInt32+margin, MaxInt32-margin), needed
// before the Voronoi step in C3. If the box already fits, the identity
// transform (scale 1, no translation) is returned.
func (b BoundingBox) FitToInt32() Transform2D {
	lo := kernel.MinInt32 + int32SafeMargin
	hi := kernel.MaxInt32 - int32SafeMargin

	if b.MinX >= lo && b.MaxX <= hi && b.MinY >= lo && b.MaxY <= hi {
		return Transform2D{Scale: 1}
	}

	cx := float64(b.MinX+b.MaxX) / 2
	cy := float64(b.MinY+b.MaxY) / 2
	halfRange := float64(hi-lo) / 2
	extentX := float64(b.MaxX-b.MinX) / 2
	extentY := float64(b.MaxY-b.MinY) / 2
	extent := extentX
	if extentY > extent {
		extent = extentY
	}
	if extent == 0 {
		extent = 1
	}
	scale := halfRange / extent

	return Transform2D{
		TranslateX: -cx,
		TranslateY: -cy,
		Scale:      scale,
	}
}

// orientEntry tracks a path pending nesting-depth classification.
type orientEntry struct {
	path  Path
	area  float64
	depth int
}

// OrientPaths enforces standard contour/hole orientation by nesting-depth
// analysis, per spec.md §4.1: sort by absolute area descending; for each
// path locate its enclosing parent by point-in-polygon against
// already-classified roots, infer depth from the parent's depth+1, and
// reverse the path if its signed area does not match the orientation
// required at that depth (even depth: outer/CCW, odd depth: hole/CW).
func OrientPaths(paths PolygonSet) PolygonSet {
	entries := make([]*orientEntry, len(paths))
	for i, p := range paths {
		entries[i] = &orientEntry{path: p, area: Area(PolygonSet{p}), depth: -1}
	}
	sort.Slice(entries, func(i, j int) bool {
		return absf(entries[i].area) > absf(entries[j].area)
	})

	classified := make([]*orientEntry, 0, len(entries))
	for _, e := range entries {
		depth := 0
		// Find the innermost already-classified root that contains this
		// path's first vertex; its depth+1 is this path's depth.
		best := -1
		bestDepth := -1
		if len(e.path) > 0 {
			for idx, root := range classified {
				if root.depth > bestDepth && pointInPath(e.path[0], root.path) {
					best = idx
					bestDepth = root.depth
				}
			}
		}
		if best >= 0 {
			depth = bestDepth + 1
		}
		e.depth = depth

		wantCCW := depth%2 == 0
		isCCW := e.area > 0
		if wantCCW != isCCW {
			e.path = reversePath(e.path)
			e.area = -e.area
		}
		classified = append(classified, e)
	}

	out := make(PolygonSet, len(classified))
	for i, e := range classified {
		out[i] = e.path
	}
	return out
}

func pointInPath(pt Point, path Path) bool {
	loc := PointInPolygon(pt, path, NonZero)
	return loc != kernel.Outside
}

func reversePath(p Path) Path {
	out := make(Path, len(p))
	for i, j := 0, len(p)-1; i < len(p); i, j = i+1, j-1 {
		out[i] = p[j]
	}
	return out
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
