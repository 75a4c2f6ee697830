// Package motion implements the C4 motion planners of spec.md §4.4: a
// simple greedy nearest-endpoint planner and a support-aware variant for
// overhangs.
package motion

import (
	kernel "github.com/go-clipper/clipper2/port"

	"github.com/jdfr/multires/internal/geom"
)

// Planner holds the running state a simple planner carries across slices:
// the previous slice's last emitted point seeds the next slice's search,
// per spec.md §4.4.
type Planner struct {
	startNear geom.Point
	hasStart  bool
}

// NewPlanner returns a planner with no seed yet; the first call to Plan
// seeds start_near from the first input path's last vertex.
func NewPlanner() *Planner { return &Planner{} }

// SetStart explicitly seeds start_near (used to carry state across slices).
func (p *Planner) SetStart(pt geom.Point) {
	p.startNear = pt
	p.hasStart = true
}

// Plan orders paths greedily by nearest endpoint to the running start_near,
// fusing a chosen path onto the output's back when its front coincides with
// the output's current back point, per spec.md §4.4.
func (p *Planner) Plan(paths []geom.Path) []geom.Path {
	if len(paths) == 0 {
		return nil
	}
	if !p.hasStart {
		first := paths[0]
		p.startNear = first[len(first)-1]
		p.hasStart = true
	}

	used := make([]bool, len(paths))
	var out []geom.Path

	for remaining := len(paths); remaining > 0; {
		bestIdx := -1
		bestReverse := false
		var bestDist Int128Dist
		for i, path := range paths {
			if used[i] || len(path) == 0 {
				continue
			}
			front := path[0]
			back := path[len(path)-1]
			dFront := distance128(p.startNear, front)
			dBack := distance128(p.startNear, back)
			reverse := dBack.Less(dFront)
			d := dFront
			if reverse {
				d = dBack
			}
			if bestIdx == -1 || d.Less(bestDist) {
				bestIdx = i
				bestDist = d
				bestReverse = reverse
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		remaining--

		chosen := paths[bestIdx]
		if bestReverse {
			chosen = reversePath(chosen)
		}

		if len(out) > 0 {
			lastOut := out[len(out)-1]
			if lastOut[len(lastOut)-1] == chosen[0] {
				out[len(out)-1] = append(lastOut, chosen[1:]...)
				p.startNear = out[len(out)-1][len(out[len(out)-1])-1]
				continue
			}
		}
		out = append(out, append(geom.Path{}, chosen...))
		p.startNear = chosen[len(chosen)-1]
	}
	return out
}

func reversePath(p geom.Path) geom.Path {
	out := make(geom.Path, len(p))
	for i, j := 0, len(p)-1; i < len(p); i, j = i+1, j-1 {
		out[i] = p[j]
	}
	return out
}

// Int128Dist wraps kernel.UInt128 so callers never need to import kernel
// directly just to compare squared distances.
type Int128Dist struct{ v kernel.UInt128 }

func (d Int128Dist) Less(o Int128Dist) bool {
	if d.v.Hi != o.v.Hi {
		return d.v.Hi < o.v.Hi
	}
	return d.v.Lo < o.v.Lo
}

// distance128 computes the squared distance with 128-bit-safe arithmetic,
// per spec.md §4.4's "deltaX²+deltaY² for coordinates up to ±2⁶³" requirement.
func distance128(a, b geom.Point) Int128Dist {
	return Int128Dist{v: kernel.DistanceSquared128(
		kernel.Point64{X: a.X, Y: a.Y},
		kernel.Point64{X: b.X, Y: b.Y},
	)}
}
