package motion

import (
	"github.com/jdfr/multires/internal/geom"
)

// almostEqualTolerance is the "small fixed pixel tolerance" spec.md §4.4
// uses to decide whether two endpoints should be treated as concatenable.
const almostEqualTolerance = 2

func almostEqual(a, b geom.Point) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= almostEqualTolerance && dy <= almostEqualTolerance
}

// OverhangPlanner implements the support-aware variant of spec.md §4.4.
type OverhangPlanner struct {
	inner                  *Planner
	KeepStartInsideSupport bool
}

func NewOverhangPlanner() *OverhangPlanner {
	return &OverhangPlanner{inner: NewPlanner()}
}

func (op *OverhangPlanner) SetStart(pt geom.Point) { op.inner.SetStart(pt) }

// Plan takes paths already split into inside/outside sets against support,
// alternately concatenates onto the running output, and hands the rest to
// the simple planner once one set is exhausted; when either set starts out
// empty, the simple planner plans all of paths.
func (op *OverhangPlanner) Plan(paths []geom.Path, inside, outside []geom.Path) []geom.Path {
	if len(inside) == 0 || len(outside) == 0 {
		return op.inner.Plan(paths)
	}

	insideUsed := make([]bool, len(inside))
	outsideUsed := make([]bool, len(outside))
	var out []geom.Path
	preferInside := true

	for {
		remainingInside := countUnused(insideUsed)
		remainingOutside := countUnused(outsideUsed)
		if remainingInside == 0 || remainingOutside == 0 {
			break
		}

		concatenated := false
		if len(out) > 0 {
			back := out[len(out)-1][len(out[len(out)-1])-1]
			order := []struct {
				set  []geom.Path
				used []bool
			}{{inside, insideUsed}, {outside, outsideUsed}}
			if !preferInside {
				order[0], order[1] = order[1], order[0]
			}
			for _, o := range order {
				if idx, reverse, ok := findConcatenable(o.set, o.used, back); ok {
					o.used[idx] = true
					p := o.set[idx]
					if reverse {
						p = reversePath(p)
					}
					out[len(out)-1] = append(out[len(out)-1], p[1:]...)
					concatenated = true
					break
				}
			}
		}

		if !concatenated {
			if remainingInside == 0 {
				break
			}
			idx := nearestUnused(inside, insideUsed, op.inner.startNearOrZero())
			if idx < 0 {
				break
			}
			path := inside[idx]
			if op.KeepStartInsideSupport && len(out) > 0 {
				backOfPrev := out[len(out)-1][len(out[len(out)-1])-1]
				if path[0] == backOfPrev {
					if path[len(path)-1] != backOfPrev {
						path = reversePath(path)
					} else {
						mid := len(path) / 2
						path = append(append(geom.Path{}, path[mid:]...), path[1:mid+1]...)
					}
				}
			}
			insideUsed[idx] = true
			out = append(out, append(geom.Path{}, path...))
		}
		preferInside = !preferInside
	}

	// Hand whatever remains of either set to the simple planner.
	var leftover []geom.Path
	for i, u := range insideUsed {
		if !u {
			leftover = append(leftover, inside[i])
		}
	}
	for i, u := range outsideUsed {
		if !u {
			leftover = append(leftover, outside[i])
		}
	}
	if len(leftover) > 0 {
		out = append(out, op.inner.Plan(leftover)...)
	}
	return out
}

func countUnused(used []bool) int {
	n := 0
	for _, u := range used {
		if !u {
			n++
		}
	}
	return n
}

func findConcatenable(set []geom.Path, used []bool, back geom.Point) (int, bool, bool) {
	for i, p := range set {
		if used[i] || len(p) == 0 {
			continue
		}
		if almostEqual(p[0], back) {
			return i, false, true
		}
		if almostEqual(p[len(p)-1], back) {
			return i, true, true
		}
	}
	return -1, false, false
}

func nearestUnused(set []geom.Path, used []bool, from geom.Point) int {
	best := -1
	var bestDist Int128Dist
	for i, p := range set {
		if used[i] || len(p) == 0 {
			continue
		}
		d := distance128(from, p[0])
		if best == -1 || d.Less(bestDist) {
			best = i
			bestDist = d
		}
	}
	return best
}

func (p *Planner) startNearOrZero() geom.Point {
	return p.startNear
}
