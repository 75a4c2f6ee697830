package scheduler

import (
	"github.com/rs/zerolog/log"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/multislicer"
)

// ToolpathManager tracks previously computed per-process contours and
// reconstructs the already-filled volume at an arbitrary Z, per spec.md
// §1's "toolpath manager" and original_source/multi/3d.hpp's
// ToolpathManager class. Slicess is the owning per-process arena: every
// OutputSlice.ResultIdx is a non-owning index into Slicess[ntool].
type ToolpathManager struct {
	Spec    *config.MultiSpec
	Multi   *multislicer.Multislicer
	Slicess [][]*ResultSingleTool // one slice per process

	feedback map[feedbackKey]geom.PolygonSet
}

type feedbackKey struct {
	Z     float64
	NTool int
}

// NewToolpathManager constructs an empty manager for spec, one arena per
// process.
func NewToolpathManager(spec *config.MultiSpec) *ToolpathManager {
	return &ToolpathManager{
		Spec:     spec,
		Multi:    multislicer.New(spec),
		Slicess:  make([][]*ResultSingleTool, len(spec.Processes)),
		feedback: make(map[feedbackKey]geom.PolygonSet),
	}
}

// ReceiveFeedbackContour stores an externally measured additive contour at
// Z for process ntool, per spec.md §4.6 "Feedback contours".
func (tm *ToolpathManager) ReceiveFeedbackContour(z float64, ntool int, contour geom.PolygonSet) {
	tm.feedback[feedbackKey{Z: z, NTool: ntool}] = contour
}

// UpdateInputWithProfilesFromPreviousSlices subtracts the already-filled
// volume (reconstructed from previously committed contours scaled by each
// process's voxel profile) from rawSlice at z for process ntool, per
// spec.md §4.6's step inside computeNextInputSlices.
//
// initial is the input slice's own raw slice as the scheduler passes it;
// the raw slices listed in an input's RequiredRawSlices are not merged into
// it anywhere. This method is the inner per-previous-slice loop, grounded
// on ToolpathManager::applyContours/updateInputWithProfilesFromPreviousSlices.
func (tm *ToolpathManager) UpdateInputWithProfilesFromPreviousSlices(initial geom.PolygonSet, z float64, ntool int) (geom.PolygonSet, error) {
	current := initial
	addsub := tm.Spec.Global.AddSubWorkflowMode
	ignoreRedundant := tm.Spec.Global.IgnoreRedundantAdditiveContours

	for prevTool, slices := range tm.Slicess {
		for _, rst := range slices {
			if rst == nil || !rst.Phase1Complete {
				continue
			}
			var contours geom.PolygonSet
			if fb, ok := tm.feedback[feedbackKey{Z: rst.Z, NTool: prevTool}]; ok && (ignoreRedundant || !addsub) {
				contours = fb
			} else {
				contours = rst.Contours
			}
			if len(contours) == 0 {
				continue
			}
			profile := tm.Spec.Processes[prevTool].Profile
			if profile == nil {
				continue
			}
			zshift := z - rst.Z
			width := profile.Width(zshift)
			if width <= 0 {
				continue
			}
			radius := float64(tm.Spec.Processes[prevTool].Radius)
			delta := width - radius
			scaled := contours
			if delta != 0 {
				var err error
				scaled, err = geom.Offset(delta, contours, geom.JoinRound, geom.EndPolygon)
				if err != nil {
					return nil, errkind.Wrap(errkind.InvalidGeometry, err, "scaling previous contour by voxel profile").WithSlice(ntool, z)
				}
			}
			processIsAdditive := tm.Spec.Processes[prevTool].Additive
			op := geom.OpDifference
			if !processIsAdditive {
				// subtractive previous process: a previously carved
				// region should not be re-subtracted, it should be
				// re-filled into consideration -- union it back in
				// (spec.md §9's applyContours note: the "should never
				// occur" else branch only triggers in add/sub mode for
				// `ntool_contour != 0 && processToComputeIsAdditive`,
				// which this branch ordering avoids by constructions).
				op = geom.OpUnion
			}
			merged, err := geom.Clip(op, current, scaled, geom.NonZero, geom.NonZero)
			if err != nil {
				return nil, errkind.Wrap(errkind.InvalidGeometry, err, "applying previous contour").WithSlice(ntool, z)
			}
			current = merged
		}
	}
	return current, nil
}

// Multislice runs the multislicer pipeline for (input, z, ntool) and
// on success appends the result (the whole pipeline, Phase-2 geometry
// included) to the end of the process's arena, its Idx being that position, per 3d.hpp's
// ToolpathManager::multislice.
func (tm *ToolpathManager) Multislice(input geom.PolygonSet, z float64, ntool int, alreadyFilled *geom.PolygonSet, support geom.PolygonSet) (*ResultSingleTool, error) {
	idx := len(tm.Slicess[ntool])
	rst := &ResultSingleTool{Z: z, NTool: ntool, Idx: idx}
	err := tm.Multi.ApplyProcess(&rst.Output, &input, alreadyFilled, ntool, support)
	if err != nil {
		rst.HasErr = true
		rst.Err = err
		return rst, err
	}
	rst.Phase1Complete = true
	log.Info().Int("ntool", ntool).Float64("z", z).Msg("computed phase-1 slice")
	tm.Slicess[ntool] = append(tm.Slicess[ntool], rst)
	return rst, nil
}

// Get returns the ResultSingleTool at (ntool, idx), per spec.md §9's
// "reconstruct after deserialization by walking each tool arena" note --
// OutputSlice only ever stores (ntool, idx), never the pointer itself.
func (tm *ToolpathManager) Get(ntool, idx int) *ResultSingleTool {
	if ntool < 0 || ntool >= len(tm.Slicess) || idx < 0 || idx >= len(tm.Slicess[ntool]) {
		return nil
	}
	return tm.Slicess[ntool][idx]
}

// RemoveUsedSlicesBelowZ drops stored ResultSingleTools whose
// NumSlicesRequiringThisOne has reached zero (tracked by the caller on the
// owning OutputSlice) and whose Z lies behind the garbage-collection
// threshold, per spec.md §4.6 "Garbage collection". The caller passes
// stillReferenced(ntool, idx) to check liveness since that bookkeeping
// lives on OutputSlice, not here.
func (tm *ToolpathManager) RemoveUsedSlicesBelowZ(thresholdZ float64, sliceUpwards bool, stillReferenced func(ntool, idx int) bool) {
	for ntool, slices := range tm.Slicess {
		kept := slices[:0]
		for _, rst := range slices {
			pastThreshold := sliceUpwards && rst.Z < thresholdZ || !sliceUpwards && rst.Z > thresholdZ
			if rst.Used && pastThreshold && !stillReferenced(ntool, rst.Idx) {
				continue
			}
			kept = append(kept, rst)
		}
		tm.Slicess[ntool] = kept
	}
}

// ComputeContoursAboveAndBelow memoizes the union of committed contours
// above and below z for process ntool (spec.md §4.6 "Computing contours
// above/below"): once computed, repeated calls with overlapping
// requirement sets return the cached PolygonSet.
func (rst *ResultSingleTool) ComputeContoursAboveAndBelow(neighborsAbove, neighborsBelow []*ResultSingleTool) (above, below geom.PolygonSet, err error) {
	if !rst.aboveComputed {
		above, err = unionAll(neighborsAbove)
		if err != nil {
			return nil, nil, err
		}
		rst.above = above
		rst.aboveComputed = true
	}
	if !rst.belowComputed {
		below, err = unionAll(neighborsBelow)
		if err != nil {
			return nil, nil, err
		}
		rst.below = below
		rst.belowComputed = true
	}
	return rst.above, rst.below, nil
}

// ClearContoursAboveBelow resets the memoization, per spec.md §4.6's
// "Reset with clearContoursAboveBelow when required by
// recomputeRequiredAfter* flags."
func (rst *ResultSingleTool) ClearContoursAboveBelow() {
	rst.aboveComputed = false
	rst.belowComputed = false
	rst.above = nil
	rst.below = nil
}

func unionAll(rsts []*ResultSingleTool) (geom.PolygonSet, error) {
	var acc geom.PolygonSet
	for _, r := range rsts {
		if r == nil || len(r.Contours) == 0 {
			continue
		}
		if len(acc) == 0 {
			acc = r.Contours
			continue
		}
		merged, err := geom.Clip(geom.OpUnion, acc, r.Contours, geom.NonZero, geom.NonZero)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}
