// Package multislicer implements the C5 per-process single-Z pipeline of
// spec.md §4.5: detail removal, toolpath offset, clearance/snap, infilling,
// medial-axis recovery, and motion planning for one process at one Z.
//
// Grounded on original_source/multi/multislicer.cpp's Multislicer class;
// every offset/clip call is routed through internal/geom, which in turn
// sits on github.com/go-clipper/clipper2 (the teacher's clipping/offset
// engine).
package multislicer

import (
	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/gridsnap"
	"github.com/jdfr/multires/internal/motion"
)

// Output is the per-process result of one applyProcess call, the Go mirror
// of original_source's SingleProcessOutput.
type Output struct {
	Contours       geom.PolygonSet
	ContoursToShow geom.PolygonSet
	Toolpaths      geom.PolygonSet // open paths
	InfillingAreas geom.PolygonSet

	AlsoInfillingAreas bool

	// MedialAxisIndependentContours / InfillingsIndependentContours hold,
	// per recursion level, the inflated medial-axis/infilling rings that
	// the scheduler (C6) needs as independent cross-slice dependency
	// units (spec.md §4.5 step 7/9).
	MedialAxisIndependentContours []geom.PolygonSet
	InfillingsIndependentContours []geom.PolygonSet
}

// Multislicer runs the per-process pipeline for a MultiSpec. One instance
// is shared across all Z values for a run; motion planners persist state
// (start_near) across slices per process, per spec.md §4.4.
type Multislicer struct {
	Spec     *config.MultiSpec
	planners []*motion.Planner
	overhang []*motion.OverhangPlanner
}

// New returns a Multislicer with one motion-planner pair per process.
func New(spec *config.MultiSpec) *Multislicer {
	n := len(spec.Processes)
	m := &Multislicer{
		Spec:     spec,
		planners: make([]*motion.Planner, n),
		overhang: make([]*motion.OverhangPlanner, n),
	}
	for i := 0; i < n; i++ {
		m.planners[i] = motion.NewPlanner()
		m.overhang[i] = motion.NewOverhangPlanner()
	}
	return m
}

// nextProcessSameKind reports whether process k+1 exists and behaves as "the
// same kind" of tool as k, per spec.md §4.5 step 1/3 ("nextProcessSameKind"):
// both additive or both subtractive, since the smoothing/closing steps only
// make sense within one material-removal direction.
func (m *Multislicer) nextProcessSameKind(k int) bool {
	if k+1 >= len(m.Spec.Processes) {
		return false
	}
	return m.Spec.Processes[k].Additive == m.Spec.Processes[k+1].Additive
}

// ApplyProcess runs the full pipeline of spec.md §4.5 for process k.
// contoursToFill is mutated by subtractive accumulation as processes
// proceed (the caller threads the same slice through ApplyProcesses);
// contoursAlreadyFilled accumulates committed lower-resolution contours.
// support is the (possibly nil) overhang-support PolygonSet from
// neighboring slices, used by the overhang-aware motion planner.
func (m *Multislicer) ApplyProcess(output *Output, contoursToFill, contoursAlreadyFilled *geom.PolygonSet, k int, support geom.PolygonSet) error {
	if k < 0 || k >= len(m.Spec.Processes) {
		return errkind.New(errkind.Bug, "process index %d out of range", k).WithSlice(k, 0)
	}
	proc := &m.Spec.Processes[k]
	nextSame := m.nextProcessSameKind(k)

	contour, err := m.removeHighResDetails(k, proc, nextSame, *contoursToFill)
	if err != nil {
		return m.wrap(err, k, "pre-processing removal of unreachable detail")
	}

	temp, err := geom.Offset(-float64(proc.Radius), contour, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return m.wrap(err, k, "toolpath offset")
	}

	temp, err = m.clearanceOrSnap(proc, nextSame, temp)
	if err != nil {
		return m.wrap(err, k, "snap/clearance/burr")
	}

	output.Toolpaths = closeOpenPaths(temp)

	output.Contours, err = geom.Offset(float64(proc.Radius), temp, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return m.wrap(err, k, "back-compute committed contour")
	}

	if proc.RadiusRemoveCommon > 0 && k > 0 {
		if err := m.discardCommonToolpaths(output, proc, *contoursAlreadyFilled); err != nil {
			return m.wrap(err, k, "discard common arcs")
		}
	}

	if nextSame && proc.InfillingRecursive && proc.InfillingMode != config.InfillingNone {
		ring, err := geom.Offset(float64(proc.Radius), output.Toolpaths, geom.JoinRound, geom.EndJoined)
		if err != nil {
			return m.wrap(err, k, "recursive outer-ring contour")
		}
		output.InfillingsIndependentContours = append(output.InfillingsIndependentContours, ring)
	}

	if err := m.processInfilling(output, proc, temp); err != nil {
		return m.wrap(err, k, "infilling area")
	}

	if err := m.applyMedialAxis(output, proc); err != nil {
		return m.wrap(err, k, "medial axis")
	}

	if m.Spec.Global.ApplyMotionPlanner {
		m.runMotionPlanner(output, k, support)
	}

	return nil
}

func (m *Multislicer) wrap(err error, k int, step string) error {
	if e, ok := err.(*errkind.Error); ok {
		e.WithSlice(k, 0)
		return e
	}
	return errkind.Wrap(errkind.InvalidGeometry, err, "process %d: %s", k, step).WithSlice(k, 0)
}

// removeHighResDetails is spec.md §4.5 step 1.
func (m *Multislicer) removeHighResDetails(k int, proc *config.ProcessSpec, nextSame bool, toFill geom.PolygonSet) (geom.PolygonSet, error) {
	isLast := k+1 >= len(m.Spec.Processes)
	if !proc.DoPreprocessing || isLast {
		return toFill, nil
	}
	opened, err := geom.Opening(float64(proc.Radius), toFill, geom.JoinRound)
	if err != nil {
		return nil, err
	}
	if !nextSame {
		negFactor := proc.SubStep * 1.1
		return smallDetailsOverwrite(opened, negFactor)
	}
	s := proc.SubStep
	closed, err := geom.Closing(s, opened, geom.JoinRound)
	if err != nil {
		return nil, err
	}
	lowres, err := geom.Clip(geom.OpDifference, closed, opened, geom.NonZero, geom.NonZero)
	if err != nil {
		return nil, err
	}
	lowres, err = geom.Opening(1, lowres, geom.JoinRound)
	if err != nil {
		return nil, err
	}
	lowres, err = geom.Offset(proc.DilateStep, lowres, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return nil, err
	}
	return geom.Clip(geom.OpDifference, opened, lowres, geom.NonZero, geom.NonZero)
}

// smallDetailsOverwrite replaces removeHighResDetails' "overwrite small
// positive and negative details" branch used when the next process is a
// different kind (spec.md §4.5 step 1, second sentence).
func smallDetailsOverwrite(shape geom.PolygonSet, negFactor float64) (geom.PolygonSet, error) {
	return geom.Offset2(-negFactor, negFactor, shape, geom.JoinRound, geom.EndPolygon)
}

// clearanceOrSnap is spec.md §4.5 step 3.
func (m *Multislicer) clearanceOrSnap(proc *config.ProcessSpec, nextSame bool, temp geom.PolygonSet) (geom.PolygonSet, error) {
	switch {
	case proc.ApplySnap && nextSame:
		doubled, err := geom.Offset2(-proc.SafeStep, proc.SafeStep, temp, geom.JoinRound, geom.EndPolygon)
		if err != nil {
			return nil, err
		}
		isHole := holeFlags(doubled)
		snapped, err := gridsnap.Snap(doubled, isHole, gridsnap.Spec{
			StepX: proc.GridStep, StepY: proc.GridStep,
			ShiftX: proc.ShiftX, ShiftY: proc.ShiftY,
			MaxDist: proc.MaxDist, Mode: gridsnap.Erode, RemoveRedundant: true,
		})
		if err != nil {
			return nil, err
		}
		return snapped, nil
	case !proc.ApplySnap && proc.AddInternalClearance:
		return geom.Opening(float64(proc.Radius), temp, geom.JoinRound)
	case proc.BurrLength > 0:
		return geom.Offset2(-float64(proc.BurrLength), float64(proc.BurrLength), temp, geom.JoinMiter, geom.EndSquare)
	default:
		return temp, nil
	}
}

// holeFlags classifies each path of ps by orientation, per spec.md §3's
// HoledPolygon invariant (outer CCW, holes CW): a non-positive signed area
// marks a hole, so the grid snapper (C2) applies the flipped hole-side
// acceptance test of spec.md §4.2 to it instead of the contour-side test.
func holeFlags(ps geom.PolygonSet) []bool {
	isHole := make([]bool, len(ps))
	for i, p := range ps {
		isHole[i] = geom.Area(geom.PolygonSet{p}) <= 0
	}
	return isHole
}

// discardCommonToolpaths is spec.md §4.5 step 6.
func (m *Multislicer) discardCommonToolpaths(output *Output, proc *config.ProcessSpec, alreadyFilled geom.PolygonSet) error {
	inflated, err := geom.Offset(float64(proc.Radius)+float64(proc.RadiusRemoveCommon), alreadyFilled, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return err
	}
	remaining, err := geom.ClipOpen(geom.OpDifference, output.Toolpaths, inflated, geom.NonZero)
	if err != nil {
		return err
	}
	output.Toolpaths = remaining
	return nil
}

// closeOpenPaths appends the first point at the end of each path, per
// spec.md §4.5 step 4 ("Emit toolpaths as closed-open paths").
func closeOpenPaths(ps geom.PolygonSet) geom.PolygonSet {
	out := make(geom.PolygonSet, len(ps))
	for i, p := range ps {
		if len(p) == 0 {
			out[i] = p
			continue
		}
		np := make(geom.Path, len(p)+1)
		copy(np, p)
		np[len(p)] = p[0]
		out[i] = np
	}
	return out
}

// runMotionPlanner is spec.md §4.5 step 10's second half.
func (m *Multislicer) runMotionPlanner(output *Output, k int, support geom.PolygonSet) {
	paths := []geom.Path(output.Toolpaths)
	if len(support) > 0 {
		inside, _ := geom.ClipOpen(geom.OpIntersection, output.Toolpaths, support, geom.NonZero)
		outside, _ := geom.ClipOpen(geom.OpDifference, output.Toolpaths, support, geom.NonZero)
		planned := m.overhang[k].Plan(paths, []geom.Path(inside), []geom.Path(outside))
		output.Toolpaths = planned
		return
	}
	output.Toolpaths = m.planners[k].Plan(paths)
}

// ApplyProcesses runs ApplyProcess for every process from kinit to kend
// (inclusive), threading contoursToFill/contoursAlreadyFilled between
// processes per spec.md §4.5: subtractive accumulation, substractive-outer
// box augmentation and clamp-back at entry/exit.
func (m *Multislicer) ApplyProcesses(outputs []*Output, contoursToFill *geom.PolygonSet, kinit, kend int, supports []geom.PolygonSet) error {
	if kinit < 0 {
		kinit = 0
	}
	if kend < 0 || kend >= len(m.Spec.Processes) {
		kend = len(m.Spec.Processes) - 1
	}
	global := m.Spec.Global

	var outerBox geom.PolygonSet
	if global.SubstractiveOuter {
		outerBox = config.DerivedOuterBox(global.OuterLimitX, global.OuterLimitY)
		merged, err := geom.Clip(geom.OpUnion, *contoursToFill, outerBox, geom.NonZero, geom.NonZero)
		if err != nil {
			return err
		}
		*contoursToFill = merged
	}

	var alreadyFilled geom.PolygonSet
	for k := kinit; k <= kend; k++ {
		proc := &m.Spec.Processes[k]
		output := outputs[k-kinit]
		var support geom.PolygonSet
		if k < len(supports) {
			support = supports[k]
		}

		if err := m.ApplyProcess(output, contoursToFill, &alreadyFilled, k, support); err != nil {
			return err
		}

		if err := m.applyAddSubAccumulation(proc, contoursToFill, output); err != nil {
			return m.wrap(err, k, "add/sub accumulation")
		}

		if config.UseRadiusRemoveCommon(m.Spec.Processes, global.AddSubWorkflowMode, k+1) {
			merged, err := geom.Clip(geom.OpUnion, alreadyFilled, output.Contours, geom.NonZero, geom.NonZero)
			if err != nil {
				return m.wrap(err, k, "accumulate already-filled contours")
			}
			alreadyFilled = merged
		}

		if global.SubstractiveOuter {
			clipped, err := geom.Clip(geom.OpIntersection, output.InfillingAreas, outerBox, geom.NonZero, geom.NonZero)
			if err == nil {
				output.InfillingAreas = clipped
			}
			openClipped, err := geom.ClipOpen(geom.OpIntersection, output.Toolpaths, outerBox, geom.NonZero)
			if err == nil {
				output.Toolpaths = openClipped
			}
		}
	}
	return nil
}

// applyAddSubAccumulation implements spec.md scenario 3 ("Add/sub
// workflow"): for an additive process, contoursToFill becomes
// contoursToFill \ contours; for a subtractive process acting on the
// output of a prior additive pass, contoursToFill becomes the symmetric
// case documented in spec.md §9's "applyContours" note. There is no
// separate branch for the original's `ntool_contour != 0 &&
// processToComputeIsAdditive` case: the Additive flag has two states and
// both are handled here.
func (m *Multislicer) applyAddSubAccumulation(proc *config.ProcessSpec, contoursToFill *geom.PolygonSet, output *Output) error {
	if !m.Spec.Global.AddSubWorkflowMode {
		return nil
	}
	if proc.Additive {
		remaining, err := geom.Clip(geom.OpDifference, *contoursToFill, output.Contours, geom.NonZero, geom.NonZero)
		if err != nil {
			return err
		}
		*contoursToFill = remaining
		return nil
	}
	remaining, err := geom.Clip(geom.OpDifference, output.Contours, *contoursToFill, geom.NonZero, geom.NonZero)
	if err != nil {
		return err
	}
	*contoursToFill = remaining
	return nil
}
