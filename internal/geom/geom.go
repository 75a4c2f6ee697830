// Package geom is the C1 geometry façade: Point/Path/PolygonSet/HoledPolygon
// types, bounding boxes, and the clip/offset/orient operations spec.md §4.1
// describes, all expressed over github.com/go-clipper/clipper2's Vatti and
// offset engines — the "polygon clipping/offsetting kernel" spec.md §1
// scopes out of this repository as an external collaborator.
//
// Kernel failures are never returned as clipper2's own sentinel errors;
// they are translated into errkind.InvalidGeometry, per spec.md §4.1's
// stated failure mode.
package geom

import (
	kernel "github.com/go-clipper/clipper2/port"

	"github.com/jdfr/multires/internal/errkind"
)

// Point is a 2D integer point in the process-wide internal coordinate system.
type Point struct {
	X, Y int64
}

// Path is an ordered sequence of points; closed unless used as an open
// toolpath, in which case the endpoints matter.
type Path []Point

// PolygonSet is an unordered collection of paths interpreted with a fill
// rule (even-odd or non-zero).
type PolygonSet []Path

// HoledPolygon is one outer CCW path plus zero or more CW holes.
type HoledPolygon struct {
	Outer Path
	Holes []Path
}

// FillRule mirrors kernel.FillRule so callers of geom never import kernel directly.
type FillRule = kernel.FillRule

const (
	EvenOdd  = kernel.EvenOdd
	NonZero  = kernel.NonZero
	Positive = kernel.Positive
	Negative = kernel.Negative
)

// ClipOp mirrors kernel.ClipType.
type ClipOp = kernel.ClipType

const (
	OpIntersection = kernel.Intersection
	OpUnion        = kernel.Union
	OpDifference   = kernel.Difference
	OpXor          = kernel.Xor
)

// JoinStyle and EndType mirror kernel's offset enums.
type JoinStyle = kernel.JoinType
type EndType = kernel.EndType

const (
	JoinSquare = kernel.JoinSquare
	JoinRound  = kernel.JoinRound
	JoinMiter  = kernel.JoinMiter
	JoinBevel  = kernel.JoinBevel

	EndPolygon = kernel.EndPolygon
	EndJoined  = kernel.EndJoined
	EndButt    = kernel.EndButt
	EndSquare  = kernel.EndSquare
	EndRound   = kernel.EndRound
)

func toKernelPaths(ps PolygonSet) kernel.Paths64 {
	out := make(kernel.Paths64, len(ps))
	for i, p := range ps {
		kp := make(kernel.Path64, len(p))
		for j, pt := range p {
			kp[j] = kernel.Point64{X: pt.X, Y: pt.Y}
		}
		out[i] = kp
	}
	return out
}

func fromKernelPaths(kp kernel.Paths64) PolygonSet {
	out := make(PolygonSet, len(kp))
	for i, p := range kp {
		gp := make(Path, len(p))
		for j, pt := range p {
			gp[j] = Point{X: pt.X, Y: pt.Y}
		}
		out[i] = gp
	}
	return out
}

// Clip performs op(subject, clip) under the given fill rules for the
// subject and clip sets respectively, per spec.md §4.1's
// `clip(op, subject, clip, subjectFill, clipFill) -> PolygonSet`.
//
// Clipper2's Vatti engine uses a single fill rule per operation (applied to
// both operands via winding-count accumulation), so subjectFill is the rule
// used for both sets. clipFill only has an effect when it differs from
// subjectFill and one of the two is Positive: the clip set's orientation is
// then reversed before the operation. Any other clipFill is ignored.
func Clip(op ClipOp, subject, clip PolygonSet, subjectFill, clipFill FillRule) (PolygonSet, error) {
	sub := toKernelPaths(subject)
	clp := toKernelPaths(clip)
	if subjectFill != clipFill && (clipFill == Positive || subjectFill == Positive) {
		clp = kernel.ReversePaths64(clp)
	}
	result, _, err := kernel.BooleanOp64(op, subjectFill, sub, nil, clp)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidGeometry, err, "clip operation failed")
	}
	return fromKernelPaths(result), nil
}

// ClipOpen is Clip for an open (toolpath) subject set, returning the
// clipped open paths; used by C5 step 6 (discard common arcs) and by the
// motion planner's inside/outside split (C4).
func ClipOpen(op ClipOp, subjectOpen, clip PolygonSet, fillRule FillRule) (PolygonSet, error) {
	sub := toKernelPaths(subjectOpen)
	clp := toKernelPaths(clip)
	_, openResult, err := kernel.BooleanOp64(op, fillRule, nil, sub, clp)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidGeometry, err, "open clip operation failed")
	}
	return fromKernelPaths(openResult), nil
}

// Offset inflates (delta > 0) or deflates (delta < 0) a polygon set.
func Offset(delta float64, input PolygonSet, join JoinStyle, end EndType) (PolygonSet, error) {
	result, err := kernel.InflatePaths64(toKernelPaths(input), delta, join, end)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidGeometry, err, "offset failed")
	}
	return fromKernelPaths(result), nil
}

// Offset2 executes offset(b, offset(a, in)) using one logical kernel
// instance, per spec.md §4.1.
func Offset2(a, b float64, in PolygonSet, join JoinStyle, end EndType) (PolygonSet, error) {
	mid, err := Offset(a, in, join, end)
	if err != nil {
		return nil, err
	}
	return Offset(b, mid, join, end)
}

// Opening is offset(+r, offset(-r, P)): the teacher's teacher-free shortcut
// name used throughout C5 and the GLOSSARY's "Opening / closing" entry.
func Opening(r float64, p PolygonSet, join JoinStyle) (PolygonSet, error) {
	return Offset2(-r, r, p, join, EndPolygon)
}

// Closing is offset(-r, offset(+r, P)).
func Closing(r float64, p PolygonSet, join JoinStyle) (PolygonSet, error) {
	return Offset2(r, -r, p, join, EndPolygon)
}

// Area returns the total signed area of a polygon set (sum over paths).
func Area(ps PolygonSet) float64 {
	var total float64
	for _, p := range ps {
		total += kernel.Area64(toKernelPaths(PolygonSet{p})[0])
	}
	return total
}

// PointInPolygon reports pt's classification against polygon under fillRule.
func PointInPolygon(pt Point, polygon Path, fillRule FillRule) kernel.PolygonLocation {
	kp := make(kernel.Path64, len(polygon))
	for i, p := range polygon {
		kp[i] = kernel.Point64{X: p.X, Y: p.Y}
	}
	return kernel.PointInPolygon64(kernel.Point64{X: pt.X, Y: pt.Y}, kp, fillRule)
}
