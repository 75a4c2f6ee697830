// Package gridsnap is the C2 grid snapper: it rounds an integer polygon set
// onto a regular grid under dilate/erode/simple modes, per spec.md §4.2.
package gridsnap

import (
	"math"

	kernel "github.com/go-clipper/clipper2/port"

	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// Mode selects the snapping strategy.
type Mode uint8

const (
	Simple Mode = iota
	Dilate
	Erode
)

// Spec is the grid spec of spec.md §4.2.
type Spec struct {
	StepX, StepY   int64
	ShiftX, ShiftY int64
	MaxDist        float64
	Mode           Mode
	RemoveRedundant bool
	NumSquares      int // reserved for caller-side grid-size hints; not used by the snap algorithm itself
}

// candidate is a grid point considered for a single vertex.
type candidate struct {
	x, y int64
}

// Snap snaps every path in ps to the grid described by spec. isHole[i]
// reports whether paths[i] is a hole (needed to flip the dilate/erode
// acceptance test per spec.md §4.2).
func Snap(ps geom.PolygonSet, isHole []bool, spec Spec) (geom.PolygonSet, error) {
	out := make(geom.PolygonSet, 0, len(ps))
	for i, path := range ps {
		hole := i < len(isHole) && isHole[i]
		snapped, err := snapPath(path, hole, spec)
		if err != nil {
			return nil, err
		}
		if len(snapped) >= 3 {
			out = append(out, snapped)
		}
	}
	return out, nil
}

func snapPath(path geom.Path, isHole bool, spec Spec) (geom.Path, error) {
	out := make(geom.Path, 0, len(path))
	for idx, v := range path {
		var snapped geom.Point
		var err error
		if spec.Mode == Simple {
			snapped = roundToGrid(v, spec)
		} else {
			snapped, err = snapVertex(v, idx, path, isHole, spec)
			if err != nil {
				return nil, err
			}
		}

		if len(out) == 0 {
			out = append(out, snapped)
			continue
		}
		prev := out[len(out)-1]
		if prev == snapped {
			continue
		}
		if spec.RemoveRedundant && len(out) >= 2 && isColinear(out[len(out)-2], prev, snapped) {
			out[len(out)-1] = snapped
			continue
		}
		out = append(out, snapped)
	}
	return out, nil
}

func roundToGrid(v geom.Point, spec Spec) geom.Point {
	return geom.Point{
		X: roundStep(v.X, spec.StepX, spec.ShiftX),
		Y: roundStep(v.Y, spec.StepY, spec.ShiftY),
	}
}

func roundStep(val, step, shift int64) int64 {
	if step == 0 {
		return val
	}
	rel := val - shift
	q := math.Round(float64(rel) / float64(step))
	return int64(q)*step + shift
}

// acceptable reports whether a candidate grid corner is on the correct side
// of the boundary for the mode/hole combination spec.md §4.2 describes:
// dilate on a contour (and erode on a hole) accept outside-or-on-boundary
// corners; the orientations flip for the other combinations.
func acceptable(mode Mode, isHole bool, loc kernel.PolygonLocation) bool {
	wantOutside := (mode == Dilate && !isHole) || (mode == Erode && isHole)
	if wantOutside {
		return loc == kernel.Outside || loc == kernel.OnBoundary
	}
	return loc == kernel.Inside || loc == kernel.OnBoundary
}

// snapVertex implements the dilate/erode search of spec.md §4.2: locate the
// unit cell, test its 4 corners, widen to 12 neighbors, then to 6 when the
// vertex already lies on a grid line along one axis, and fail with
// SnapFailed when nothing qualifies within MaxDist.
func snapVertex(v geom.Point, idx int, path geom.Path, isHole bool, spec Spec) (geom.Point, error) {
	cellX := floorDiv(v.X-spec.ShiftX, spec.StepX)
	cellY := floorDiv(v.Y-spec.ShiftY, spec.StepY)

	onGridX := (v.X-spec.ShiftX)%spec.StepX == 0
	onGridY := (v.Y-spec.ShiftY)%spec.StepY == 0

	offsets := unitCellOffsets()
	best, bestDist, found := searchCandidates(v, path, isHole, spec, cellX, cellY, offsets)
	if !found {
		offsets = neighborOffsets12()
		best, bestDist, found = searchCandidates(v, path, isHole, spec, cellX, cellY, offsets)
	}
	if !found && (onGridX || onGridY) {
		offsets = neighborOffsets6()
		best, bestDist, found = searchCandidates(v, path, isHole, spec, cellX, cellY, offsets)
	}
	if !found || bestDist > spec.MaxDist {
		cands := make([]struct{ X, Y int64 }, 0, len(offsets))
		for _, o := range offsets {
			cx, cy := spec.ShiftX+(cellX+o.dx)*spec.StepX, spec.ShiftY+(cellY+o.dy)*spec.StepY
			cands = append(cands, struct{ X, Y int64 }{cx, cy})
		}
		return geom.Point{}, errkind.NewSnapFailed(idx, v.X, v.Y, cands).Error
	}
	return best, nil
}

type cellOffset struct{ dx, dy int64 }

func unitCellOffsets() []cellOffset {
	return []cellOffset{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
}

// neighborOffsets12 widens the unit cell to its 12-cell neighborhood
// (the unit cell plus the ring of cells sharing an edge or corner, using
// cell-corner coordinates rather than cell indices proper).
func neighborOffsets12() []cellOffset {
	var out []cellOffset
	for dx := int64(-1); dx <= 2; dx++ {
		for dy := int64(-1); dy <= 2; dy++ {
			out = append(out, cellOffset{dx, dy})
		}
	}
	return out
}

// neighborOffsets6 is the narrower widening used when the vertex already
// sits on a grid line along one axis (spec.md §4.2 edge case).
func neighborOffsets6() []cellOffset {
	return []cellOffset{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {-1, 0}, {2, 0}}
}

func searchCandidates(v geom.Point, path geom.Path, isHole bool, spec Spec, cellX, cellY int64, offsets []cellOffset) (geom.Point, float64, bool) {
	bestDist := math.MaxFloat64
	var best geom.Point
	found := false
	for _, o := range offsets {
		cx := spec.ShiftX + (cellX+o.dx)*spec.StepX
		cy := spec.ShiftY + (cellY+o.dy)*spec.StepY
		corner := geom.Point{X: cx, Y: cy}
		loc := geom.PointInPolygon(corner, path, geom.NonZero)
		if !acceptable(spec.Mode, isHole, loc) {
			continue
		}
		d := dist(v, corner)
		if d < bestDist || (d == bestDist && leftBottomLess(corner, best)) {
			bestDist = d
			best = corner
			found = true
		}
	}
	return best, bestDist, found
}

func leftBottomLess(a, b geom.Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func dist(a, b geom.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// isColinear tests whether c lies on the line through a,b using a 128-bit
// integer cross product of the raw coordinates, per spec.md §4.2.
func isColinear(a, b, c geom.Point) bool {
	cross := kernel.CrossProduct128(
		kernel.Point64{X: a.X, Y: a.Y},
		kernel.Point64{X: b.X, Y: b.Y},
		kernel.Point64{X: c.X, Y: c.Y},
	)
	return cross.IsZero()
}
