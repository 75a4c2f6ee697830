package scheduler

import (
	"github.com/rs/zerolog/log"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// gcLagFactor is the "4.1 × sliceHeight_0" garbage-collection lag of
// spec.md §4.6, where sliceHeight_0 is the coarsest tool's slice height.
const gcLagFactor = 4.1

// SimpleSlicingScheduler drives the whole pipeline: it buffers raw slices,
// pairs them with input-slice requests, invokes the multislicer via the
// ToolpathManager, and hands output slices back to the caller in Z/tool
// order, per spec.md §2's data flow and original_source/3d.hpp's
// SimpleSlicingScheduler.
type SimpleSlicingScheduler struct {
	Spec *config.MultiSpec

	Input  []InputSlice
	Output []OutputSlice

	InputIdx  int
	OutputIdx int

	TM *ToolpathManager
	RM *RawSlicesManager

	currentZ float64
	gcCount  int
}

// NewScheduler builds the full schedule for [zmin, zmax] per spec.md §4.6:
// builds the input list for the configured mode, sorts it into output
// order, deduplicates raw slices, and computes cross-slice dependencies.
func NewScheduler(spec *config.MultiSpec, zmin, zmax float64) (*SimpleSlicingScheduler, error) {
	inputs, err := BuildSchedule(spec, zmin, zmax)
	if err != nil {
		return nil, err
	}

	order := SortInputsForOutput(inputs, spec.Global.SliceUpwards)
	sortedInputs := make([]InputSlice, len(inputs))
	outputs := make([]OutputSlice, len(inputs))
	for outIdx, origIdx := range order {
		in := inputs[origIdx]
		in.MapInputToOutput = outIdx
		sortedInputs[outIdx] = in
		outputs[outIdx] = OutputSlice{Z: in.Z, NTool: in.NTool, MapOutputToInput: outIdx, ResultIdx: -1}
	}

	rawZs, mapInputToRaw := DeduplicateRawSlices(sortedInputs, spec.Global.ZEpsilon)
	for i := range sortedInputs {
		sortedInputs[i].MapInputToRaw = mapInputToRaw[i]
	}
	if spec.Global.AvoidVerticalOverwriting {
		populateRequiredRawSlices(sortedInputs, rawZs, spec)
	}

	rm := NewRawSlicesManager(rawZs, sortedInputs, mapInputToRaw)

	ComputeCrossSliceDependencies(outputs, spec)

	return &SimpleSlicingScheduler{
		Spec:   spec,
		Input:  sortedInputs,
		Output: outputs,
		TM:     NewToolpathManager(spec),
		RM:     rm,
	}, nil
}

// populateRequiredRawSlices implements spec.md §4.6's
// avoidVerticalOverwriting addendum: for each input slice, add raw slices
// whose Z falls in [z-applicationPoint, z+remainder] and that belong to a
// finer tool (or are the slice's own raw slice already).
func populateRequiredRawSlices(inputs []InputSlice, rawZs []float64, spec *config.MultiSpec) {
	finestTool := make([]int, len(rawZs))
	for r := range finestTool {
		finestTool[r] = -1
	}
	for _, in := range inputs {
		if in.NTool > finestTool[in.MapInputToRaw] {
			finestTool[in.MapInputToRaw] = in.NTool
		}
	}
	for i := range inputs {
		in := &inputs[i]
		profile := spec.Processes[in.NTool].Profile
		if profile == nil {
			continue
		}
		lo := in.Z - profile.ApplicationPoint()
		hi := in.Z + profile.Remainder()
		for r, rz := range rawZs {
			if r == in.MapInputToRaw {
				continue
			}
			if rz < lo || rz > hi || finestTool[r] <= in.NTool {
				continue
			}
			in.RequiredRawSlices = append(in.RequiredRawSlices, r)
		}
	}
}

// DeliverRawSlice forwards a raw mesh cross-section to the raw-slice
// manager, per spec.md §2's "the scheduler buffers them" data flow.
func (s *SimpleSlicingScheduler) DeliverRawSlice(ps geom.PolygonSet) {
	s.RM.ReceiveNextRawSlice(ps)
}

// ReceiveFeedbackContour passes an externally measured additive contour
// through to the toolpath manager, per spec.md §4.6 "Feedback contours".
func (s *SimpleSlicingScheduler) ReceiveFeedbackContour(z float64, ntool int, contour geom.PolygonSet) {
	s.TM.ReceiveFeedbackContour(z, ntool, contour)
}

// ComputeNextInputSlices is the "Ready raw-slice processing loop" of
// spec.md §4.6: while every raw slice the next pending input needs is
// resident, build its input contour, run Phase-1 (and Phase-2 if nothing
// depends on cross-slice data), then try to complete any Phase-1-only
// slices whose dependencies have since become available.
func (s *SimpleSlicingScheduler) ComputeNextInputSlices() error {
	for s.InputIdx < len(s.Input) && s.RM.Ready(s.Input[s.InputIdx]) {
		if err := s.computeOneInputSlice(); err != nil {
			return err
		}
		s.InputIdx++
		s.gcCount++
		if s.gcCount >= gcPeriod {
			s.gcCount = 0
			s.collectGarbage()
		}
	}
	return s.processReadySlicesPhase2()
}

const gcPeriod = 8

func (s *SimpleSlicingScheduler) computeOneInputSlice() error {
	input := s.Input[s.InputIdx]
	outIdx := input.MapInputToOutput
	out := &s.Output[outIdx]
	s.currentZ = input.Z

	supportContours, err := s.gatherRequiredContours(out.RequiredContoursForSupport, outIdx)
	if err != nil {
		return err
	}

	raw := s.RM.GetRawContour(input.MapInputToRaw)
	contour, err := s.TM.UpdateInputWithProfilesFromPreviousSlices(raw, input.Z, input.NTool)
	if err != nil {
		return err
	}

	if g := s.Spec.Global; g.EnsureAttachmentOffset != 0 {
		contour, err = s.ensureAttachment(contour, input.Z, input.NTool)
		if err != nil {
			return err
		}
	}

	if len(supportContours) > 0 {
		merged, err := geom.Clip(geom.OpIntersection, contour, supportContours, geom.NonZero, geom.NonZero)
		if err != nil {
			return err
		}
		contour = merged
		if s.Spec.Global.SupportOffset != 0 {
			contour, err = geom.Offset(s.Spec.Global.SupportOffset, contour, geom.JoinRound, geom.EndPolygon)
			if err != nil {
				return err
			}
		}
	}

	var alreadyFilled geom.PolygonSet
	rst, err := s.TM.Multislice(contour, input.Z, input.NTool, &alreadyFilled, supportContours)
	if err != nil {
		return err
	}
	out.ResultIdx = rst.Idx
	s.RM.ConsumeRaw(input.MapInputToRaw)
	for _, r := range input.RequiredRawSlices {
		s.RM.ConsumeRaw(r)
	}

	if len(out.RequiredContoursForOverhang) == 0 && len(out.RequiredContoursForSurface) == 0 {
		out.Computed = true
		rst.Phase2Complete = true
	}
	return nil
}

func (s *SimpleSlicingScheduler) gatherRequiredContours(required []int, outIdx int) (geom.PolygonSet, error) {
	var acc geom.PolygonSet
	for _, reqIdx := range required {
		req := &s.Output[reqIdx]
		if req.ResultIdx < 0 {
			return nil, errkind.NewScheduleInconsistent(errkind.MissingDependency, outIdx, "required support contour not yet computed").Error
		}
		rst := s.TM.Get(req.NTool, req.ResultIdx)
		if rst == nil || !rst.Phase1Complete {
			return nil, errkind.NewScheduleInconsistent(errkind.MissingDependency, outIdx, "required support contour's phase-1 result missing").Error
		}
		if len(rst.Contours) == 0 {
			continue
		}
		if len(acc) == 0 {
			acc = rst.Contours
			continue
		}
		merged, err := geom.Clip(geom.OpUnion, acc, rst.Contours, geom.NonZero, geom.NonZero)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// ensureAttachment implements spec.md's GLOSSARY "Ensure-attachment
// offset": erode, optionally remove narrow artefacts, inflate, intersect
// with the union of previous contours, fuse back to guarantee vertical
// attachment.
func (s *SimpleSlicingScheduler) ensureAttachment(contour geom.PolygonSet, z float64, ntool int) (geom.PolygonSet, error) {
	g := s.Spec.Global
	eroded, err := geom.Offset(-g.EnsureAttachmentOffset, contour, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return nil, err
	}
	if g.EnsureAttachmentMinimalOffset != 0 {
		eroded, err = geom.Opening(g.EnsureAttachmentMinimalOffset, eroded, geom.JoinRound)
		if err != nil {
			return nil, err
		}
	}
	inflated, err := geom.Offset(g.EnsureAttachmentOffset, eroded, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return nil, err
	}
	prevUnion, err := s.unionOfAllPreviousContours(z, ntool)
	if err != nil || len(prevUnion) == 0 {
		return contour, err
	}
	attached, err := geom.Clip(geom.OpIntersection, inflated, prevUnion, geom.NonZero, geom.NonZero)
	if err != nil {
		return nil, err
	}
	fused, err := geom.Clip(geom.OpUnion, contour, attached, geom.NonZero, geom.NonZero)
	if err != nil {
		return nil, err
	}
	return fused, nil
}

func (s *SimpleSlicingScheduler) unionOfAllPreviousContours(z float64, ntool int) (geom.PolygonSet, error) {
	var acc geom.PolygonSet
	for _, rst := range s.TM.Slicess[ntool] {
		if rst == nil || !rst.Phase1Complete || len(rst.Contours) == 0 {
			continue
		}
		if len(acc) == 0 {
			acc = rst.Contours
			continue
		}
		merged, err := geom.Clip(geom.OpUnion, acc, rst.Contours, geom.NonZero, geom.NonZero)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// processReadySlicesPhase2 re-examines every slice with Phase-1 complete
// but Phase-2 incomplete, per spec.md §4.6: once every dependency has a
// Phase-1 result, it decrements the dependency reference counts and marks
// the slice computed. No geometry runs here: Multislice already ran the
// whole pipeline, and no support/surface masks are assembled.
func (s *SimpleSlicingScheduler) processReadySlicesPhase2() error {
	for i := range s.Output {
		out := &s.Output[i]
		if out.Computed || out.ResultIdx < 0 {
			continue
		}
		rst := s.TM.Get(out.NTool, out.ResultIdx)
		if rst == nil || !rst.Phase1Complete || rst.Phase2Complete {
			continue
		}
		ok, err := s.tryComputeSlicePhase2(out, rst)
		if err != nil {
			return err
		}
		if ok {
			out.Computed = true
			rst.Phase2Complete = true
			for _, reqIdx := range append(append([]int{}, out.RequiredContoursForOverhang...), out.RequiredContoursForSurface...) {
				s.Output[reqIdx].NumSlicesRequiringThisOne--
			}
		}
	}
	return nil
}

func (s *SimpleSlicingScheduler) tryComputeSlicePhase2(out *OutputSlice, rst *ResultSingleTool) (bool, error) {
	for _, reqIdx := range out.RequiredContoursForOverhang {
		req := s.TM.Get(s.Output[reqIdx].NTool, s.Output[reqIdx].ResultIdx)
		if req == nil || !req.Phase1Complete {
			return false, nil
		}
	}
	for _, reqIdx := range out.RequiredContoursForSurface {
		req := s.TM.Get(s.Output[reqIdx].NTool, s.Output[reqIdx].ResultIdx)
		if req == nil || !req.Phase1Complete {
			return false, nil
		}
	}
	// Phase-2 geometry (infilling/medial-axis/motion-planning) already
	// ran as part of ApplyProcess in computeOneInputSlice; here we only
	// gate on cross-slice availability per spec.md's split, so completing
	// means the dependency data is now present for downstream consumers.
	return true, nil
}

// GiveNextOutputSlice returns the next OutputSlice in ordering iff it is
// computed, per spec.md §4.6 "Output hand-out"; marks the underlying
// ResultSingleTool Used so it can be freed once nothing references it.
func (s *SimpleSlicingScheduler) GiveNextOutputSlice() (*ResultSingleTool, bool) {
	if s.OutputIdx >= len(s.Output) {
		return nil, false
	}
	out := &s.Output[s.OutputIdx]
	if !out.Computed {
		return nil, false
	}
	rst := s.TM.Get(out.NTool, out.ResultIdx)
	if rst != nil {
		rst.Used = true
	}
	s.OutputIdx++
	return rst, true
}

// collectGarbage implements spec.md §4.6 "Garbage collection": drop raw
// slices and ResultSingleTools past the coarsest tool's 4.1x slice-height
// lag behind the current Z, once their reference counts reach zero.
func (s *SimpleSlicingScheduler) collectGarbage() {
	sliceHeight0 := 1.0
	if len(s.Spec.Processes) > 0 && s.Spec.Processes[0].Profile != nil {
		sliceHeight0 = s.Spec.Processes[0].Profile.SliceHeight()
	}
	threshold := s.currentZ - gcLagFactor*sliceHeight0
	if !s.Spec.Global.SliceUpwards {
		threshold = s.currentZ + gcLagFactor*sliceHeight0
	}

	s.RM.RemoveUsedRawSlicesBelowZ(threshold, s.Spec.Global.SliceUpwards)

	stillReferenced := func(ntool, idx int) bool {
		for i := range s.Output {
			if s.Output[i].NTool == ntool && s.Output[i].ResultIdx == idx && s.Output[i].NumSlicesRequiringThisOne > 0 {
				return true
			}
		}
		return false
	}
	s.TM.RemoveUsedSlicesBelowZ(threshold, s.Spec.Global.SliceUpwards, stillReferenced)
	log.Debug().Float64("threshold", threshold).Msg("garbage collection pass")
}
